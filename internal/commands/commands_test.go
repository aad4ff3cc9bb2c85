package commands_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"todocal/internal/backend/googletasks"
	"todocal/internal/commands"
	"todocal/internal/config"
	"todocal/internal/exitcode"
	"todocal/internal/service"
	"todocal/internal/session"
	"todocal/internal/testutil"
)

// testWeek is the Sunday the fixture tasks fall in.
const testWeek = "2025-08-17"

func at(day, hour int) time.Time {
	return time.Date(2025, time.August, day, hour, 0, 0, 0, time.UTC)
}

// fixture holds two users' tasks as seen by bob (user 2):
// #10 own, #11 shared by alice and accepted, #12 shared by alice and pending.
type fixture struct {
	svc     *testutil.FakeService
	sess    *session.Session
	pending service.ShareRecord
}

func newFixture() *fixture {
	svc := testutil.NewFakeService()
	svc.AddUser(1, "alice", "pw-a")
	svc.AddUser(2, "bob", "pw-b")
	svc.AddUser(3, "carol", "pw-c")
	svc.AddTask(service.Task{ID: 10, OwnerID: 2, Title: "Standup", Start: at(18, 9), End: at(18, 11)})
	svc.AddTask(service.Task{ID: 11, OwnerID: 1, Title: "Review", Start: at(19, 14), End: at(19, 15)})
	svc.AddTask(service.Task{ID: 12, OwnerID: 1, Title: "Lunch", Start: at(20, 13), End: at(20, 14)})
	svc.AddShare(11, 2, service.StatusAccepted)
	pending := svc.AddShare(12, 2, service.StatusPending)
	return &fixture{
		svc:     svc,
		sess:    session.New(2, "bob", testutil.TokenFor(2)),
		pending: pending,
	}
}

func newConfig(t *testing.T, quiet bool) *config.Config {
	t.Helper()
	cfg, err := config.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create config: %v", err)
	}
	cfg.Quiet = quiet
	cfg.Location = time.UTC
	return cfg
}

// runCommand is a helper to run a command as the fixture user.
func runCommand(t *testing.T, cmd commands.Command, f *fixture, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	return runWithConfig(t, cmd, newConfig(t, quiet), f, args)
}

func runWithConfig(t *testing.T, cmd commands.Command, cfg *config.Config, f *fixture, args []string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	var sess *session.Session
	var svc service.Service
	if f != nil {
		sess = f.sess
		svc = f.svc
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, sess, svc, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "todocal 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	for _, want := range []string{
		"Usage:",
		"Accept an invitation",
		"Copy the week's tasks to Google Tasks",
		"Delete a task you own (alias: delete)",
		"Without a command, todocal runs 'week'.",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q:\n%s", want, stdout)
		}
	}
}

func TestHelpCommand_ListsRegistry(t *testing.T) {
	reg := commands.NewRegistry()
	help := &commands.HelpCmd{}
	help.SetRegistry(reg)
	if err := reg.Register(&commands.VersionCmd{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(help); err != nil {
		t.Fatal(err)
	}

	stdout, _, _ := runCommand(t, help, nil, nil, false)

	want := "Commands:\n  help     Print usage\n  version  Print version\n"
	if !strings.Contains(stdout, want) {
		t.Errorf("expected %q in:\n%s", want, stdout)
	}
	if strings.Contains(stdout, "  week ") {
		t.Errorf("unregistered commands should not be listed:\n%s", stdout)
	}
}

func TestHelpCommand_OneCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"delete"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := "Usage: todocal rm <id>\n  Delete a task you own\n  aliases: delete\n"
	if !strings.HasPrefix(stdout, want) {
		t.Errorf("expected prefix %q, got %q", want, stdout)
	}

	_, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, []string{"nope"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: nope\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRegistry_RejectsClashes(t *testing.T) {
	reg := commands.NewRegistry()
	if err := reg.Register(&commands.RmCmd{}); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(&commands.RmCmd{}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}

	cmd, ok := reg.Find("delete")
	if !ok || cmd.Name() != "rm" {
		t.Errorf("expected alias to resolve to rm, got %v %v", cmd, ok)
	}
	if all := reg.All(); len(all) != 1 {
		t.Errorf("expected one command, got %d", len(all))
	}
}

// Tests for week command
func TestWeekCommand_Compact(t *testing.T) {
	f := newFixture()
	cmd := &commands.WeekCmd{}
	cmd.SetDate(testWeek)
	cmd.SetCompact(true)

	stdout, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	testutil.GoldenString(t, "week_cmd_compact", stdout)
}

func TestWeekCommand_PendingTaskHidden(t *testing.T) {
	f := newFixture()
	cmd := &commands.WeekCmd{}
	cmd.SetDate(testWeek)

	stdout, _, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if strings.Contains(stdout, "Lunch") || strings.Contains(stdout, "#12") {
		t.Errorf("pending invitation task should not be on the calendar:\n%s", stdout)
	}
	// Full grid prints every hour
	if !strings.Contains(stdout, "00:00") || !strings.Contains(stdout, "23:00") {
		t.Errorf("expected all hours in full grid:\n%s", stdout)
	}
}

func TestWeekCommand_Empty(t *testing.T) {
	f := newFixture()
	cmd := &commands.WeekCmd{}
	cmd.SetDate(testWeek)
	cmd.SetOffset(1)
	cmd.SetCompact(true)

	stdout, _, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "August, 2025\n") {
		t.Errorf("expected month header, got %q", stdout)
	}
	if !strings.HasSuffix(stdout, "no tasks this week\n") {
		t.Errorf("expected empty week message, got %q", stdout)
	}
}

func TestWeekCommand_MonthSpan(t *testing.T) {
	f := newFixture()
	cmd := &commands.WeekCmd{}
	cmd.SetDate("2025-08-31")
	cmd.SetCompact(true)

	stdout, _, _ := runCommand(t, cmd, f, nil, true)

	if !strings.HasPrefix(stdout, "August 2025 - September 2025\n") {
		t.Errorf("expected spanning header, got %q", stdout)
	}
}

func TestWeekCommand_InvalidDate(t *testing.T) {
	f := newFixture()
	cmd := &commands.WeekCmd{}
	cmd.SetDate("17/08/2025")

	_, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "invalid date") {
		t.Errorf("expected invalid date error, got %q", stderr)
	}
	if f.svc.Calls("FetchOwnTasks") != 0 {
		t.Error("expected no backend calls for a bad date")
	}
}

func TestWeekCommand_RefreshFailureHidesBadge(t *testing.T) {
	f := newFixture()
	f.svc.FetchSharesErr = fmt.Errorf("%w: connection refused", service.ErrNetwork)
	cmd := &commands.WeekCmd{}
	cmd.SetDate(testWeek)
	cmd.SetCompact(true)

	stdout, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if strings.Contains(stdout, "pending invitation") {
		t.Errorf("expected no badge after failed refresh:\n%s", stdout)
	}
	if strings.Contains(stdout, "Review") {
		t.Errorf("expected shared task to be absent after failed refresh:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Standup") {
		t.Errorf("expected own task to remain:\n%s", stdout)
	}
}

func TestWeekCommand_OwnTasksFailure(t *testing.T) {
	f := newFixture()
	f.svc.FetchOwnTasksErr = fmt.Errorf("%w: connection refused", service.ErrNetwork)
	cmd := &commands.WeekCmd{}
	cmd.SetDate(testWeek)

	stdout, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "error: backend error:") {
		t.Errorf("expected backend error, got %q", stderr)
	}
}

func TestWeekCommand_NotLoggedIn(t *testing.T) {
	f := newFixture()
	f.sess = &session.Session{}
	cmd := &commands.WeekCmd{}

	_, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: todocal login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	f := newFixture()
	cmd := &commands.AddCmd{}
	cmd.SetTimes("2025-08-20 10:00", "")
	cmd.SetDescription("bring x-rays")

	stdout, stderr, code := runCommand(t, cmd, f, []string{"Dentist", "visit"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok #101\n" {
		t.Errorf("expected 'ok #101', got %q", stdout)
	}
	task, ok := f.svc.Task(101)
	if !ok {
		t.Fatal("task was not created")
	}
	if task.Title != "Dentist visit" || task.OwnerID != 2 || task.Description != "bring x-rays" {
		t.Errorf("unexpected task %+v", task)
	}
	if !task.Start.Equal(at(20, 10)) || !task.End.Equal(at(20, 11)) {
		t.Errorf("expected one hour default, got %v - %v", task.Start, task.End)
	}
}

func TestAddCommand_Errors(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		args       []string
		wantErr    string
	}{
		{"no title", "2025-08-20 10:00", "", nil, "error: title required\n"},
		{"no start", "", "", []string{"x"}, "error: --start required\n"},
		{"bad start", "tomorrow", "", []string{"x"}, "error: invalid time: tomorrow (use YYYY-MM-DD HH:MM)\n"},
		{"end before start", "2025-08-20 10:00", "2025-08-20 09:00", []string{"x"}, "error: invalid task: end time is before start time\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			cmd := &commands.AddCmd{}
			cmd.SetTimes(tt.start, tt.end)

			_, stderr, code := runCommand(t, cmd, f, tt.args, false)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.wantErr {
				t.Errorf("expected %q, got %q", tt.wantErr, stderr)
			}
			if f.svc.Calls("CreateTask") != 0 {
				t.Error("expected no CreateTask call")
			}
		})
	}
}

// Tests for edit command
func TestEditCommand(t *testing.T) {
	f := newFixture()
	cmd := &commands.EditCmd{}
	cmd.SetTitle("Daily standup")

	stdout, stderr, code := runCommand(t, cmd, f, []string{"#10"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	task, _ := f.svc.Task(10)
	if task.Title != "Daily standup" {
		t.Errorf("expected title to change, got %q", task.Title)
	}
	if !task.Start.Equal(at(18, 9)) {
		t.Errorf("start should be unchanged, got %v", task.Start)
	}
}

func TestEditCommand_SharedTask(t *testing.T) {
	f := newFixture()
	cmd := &commands.EditCmd{}
	cmd.SetTitle("Mine now")

	_, stderr, code := runCommand(t, cmd, f, []string{"11"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "not owned by you") {
		t.Errorf("expected ownership error, got %q", stderr)
	}
	if f.svc.Calls("UpdateTask") != 0 {
		t.Error("expected no UpdateTask call")
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	f := newFixture()
	cmd := &commands.EditCmd{}

	_, stderr, code := runCommand(t, cmd, f, []string{"10"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: nothing to change\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for done command
func TestDoneCommand(t *testing.T) {
	f := newFixture()

	stdout, _, code := runCommand(t, &commands.DoneCmd{}, f, []string{"10"}, false)
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("done: code %d, stdout %q", code, stdout)
	}
	if task, _ := f.svc.Task(10); !task.IsDone {
		t.Error("expected task to be done")
	}

	undo := &commands.DoneCmd{}
	undo.SetUndo(true)
	stdout, _, code = runCommand(t, undo, f, []string{"10"}, true)
	if code != exitcode.Success || stdout != "" {
		t.Fatalf("undo: code %d, stdout %q", code, stdout)
	}
	if task, _ := f.svc.Task(10); task.IsDone {
		t.Error("expected task to be not done")
	}
}

func TestDoneCommand_UnknownTask(t *testing.T) {
	f := newFixture()

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, f, []string{"99"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: not found: task 99\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for rm and show commands
func TestRmCommand(t *testing.T) {
	f := newFixture()

	stdout, stderr, code := runCommand(t, &commands.RmCmd{}, f, []string{"10"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "deleted #10 Standup\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if _, ok := f.svc.Task(10); ok {
		t.Error("task should be deleted")
	}
}

func TestRmCommand_IDRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmCmd{}, newFixture(), nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task id required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand_SharedTask(t *testing.T) {
	f := newFixture()

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, f, []string{"11"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := "task #11: Review\n" +
		"  start:  Tue 2025-08-19 14:00\n" +
		"  end:    Tue 2025-08-19 15:00\n" +
		"  done:   no\n" +
		"  owner:  user 1 (shared with you)\n"
	if stdout != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, stdout)
	}
}

func TestShowCommand_PendingTaskNotVisible(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.ShowCmd{}, newFixture(), []string{"12"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "not found") {
		t.Errorf("expected not found, got %q", stderr)
	}
}

// Tests for share and users commands
func TestShareCommand(t *testing.T) {
	f := newFixture()

	stdout, stderr, code := runCommand(t, &commands.ShareCmd{}, f, []string{"10", "Carol"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "shared #10 with carol\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	// Same invitation again is refused by the backend
	_, stderr, code = runCommand(t, &commands.ShareCmd{}, f, []string{"10", "3"}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "already shared") {
		t.Errorf("expected duplicate error, got %q", stderr)
	}
}

func TestShareCommand_Refused(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"self", []string{"10", "bob"}, "cannot share a task with yourself"},
		{"not owner", []string{"11", "carol"}, "not owned by you"},
		{"unknown user", []string{"10", "zed"}, "not found: user zed"},
		{"missing user", []string{"10"}, "task id and user required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, stderr, code := runCommand(t, &commands.ShareCmd{}, f, tt.args, false)

			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, stderr)
			}
			if f.svc.Calls("CreateShare") != 0 {
				t.Error("expected no CreateShare call")
			}
		})
	}
}

func TestUsersCommand(t *testing.T) {
	f := newFixture()

	stdout, _, code := runCommand(t, &commands.UsersCmd{}, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := "     1  alice\n     3  carol\n"
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}

	stdout, _, _ = runCommand(t, &commands.UsersCmd{}, f, []string{"bob"}, false)
	if stdout != "no users found\n" {
		t.Errorf("expected self to be excluded, got %q", stdout)
	}
}

// Tests for inbox, accept, decline and invite commands
func TestInboxCommand(t *testing.T) {
	f := newFixture()

	stdout, _, code := runCommand(t, &commands.InboxCmd{}, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	want := fmt.Sprintf("1 pending invitation\n%6s  task #12  Lunch\n", fmt.Sprintf("#%d", f.pending.ID))
	if stdout != want {
		t.Errorf("expected %q, got %q", want, stdout)
	}
}

func TestInboxCommand_UnavailableTask(t *testing.T) {
	f := newFixture()
	f.svc.FetchTaskErr = fmt.Errorf("%w: timeout", service.ErrNetwork)

	stdout, _, code := runCommand(t, &commands.InboxCmd{}, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "(unavailable)") {
		t.Errorf("expected unavailable marker, got %q", stdout)
	}
}

func TestInboxCommand_Empty(t *testing.T) {
	f := newFixture()
	f.svc.AddUser(4, "dave", "pw-d")
	f.sess = session.New(4, "dave", testutil.TokenFor(4))

	stdout, _, code := runCommand(t, &commands.InboxCmd{}, f, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no pending invitations\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if f.svc.Calls("FetchTasksByIDs") != 0 {
		t.Error("expected no batch fetch without accepted shares")
	}
}

func TestAcceptCommand(t *testing.T) {
	f := newFixture()
	id := fmt.Sprint(f.pending.ID)

	stdout, stderr, code := runCommand(t, commands.NewAcceptCmd(), f, []string{id}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok' without badge, got %q", stdout)
	}
	if rec, _ := f.svc.Share(f.pending.ID); rec.Status != service.StatusAccepted {
		t.Errorf("expected accepted, got %s", rec.Status)
	}

	// Accepted task now appears on the calendar
	week := &commands.WeekCmd{}
	week.SetDate(testWeek)
	week.SetCompact(true)
	stdout, _, _ = runCommand(t, week, f, nil, false)
	if !strings.Contains(stdout, "#12  [ ] Wed 20th 13:00-14:00  Lunch (shared)") {
		t.Errorf("expected accepted task in legend:\n%s", stdout)
	}

	// A second answer is refused without a request
	before := f.svc.Calls("RespondToShare")
	_, stderr, code = runCommand(t, commands.NewDeclineCmd(), f, []string{id}, false)
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "share is not pending") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if f.svc.Calls("RespondToShare") != before {
		t.Error("expected no RespondToShare call for an answered share")
	}
}

func TestDeclineCommand(t *testing.T) {
	f := newFixture()

	stdout, _, code := runCommand(t, commands.NewDeclineCmd(), f, []string{fmt.Sprint(f.pending.ID)}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if rec, _ := f.svc.Share(f.pending.ID); rec.Status != service.StatusRejected {
		t.Errorf("expected rejected, got %s", rec.Status)
	}
}

func TestAcceptCommand_BadgeRemains(t *testing.T) {
	f := newFixture()
	f.svc.AddTask(service.Task{ID: 13, OwnerID: 3, Title: "Gym", Start: at(21, 7), End: at(21, 8)})
	f.svc.AddShare(13, 2, service.StatusPending)

	stdout, _, code := runCommand(t, commands.NewAcceptCmd(), f, []string{fmt.Sprint(f.pending.ID)}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n1 pending invitation\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestAcceptCommand_BackendFailure(t *testing.T) {
	f := newFixture()
	f.svc.RespondErr = fmt.Errorf("%w: connection reset", service.ErrNetwork)

	_, stderr, code := runCommand(t, commands.NewAcceptCmd(), f, []string{fmt.Sprint(f.pending.ID)}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error:") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if rec, _ := f.svc.Share(f.pending.ID); rec.Status != service.StatusPending {
		t.Errorf("expected share to stay pending, got %s", rec.Status)
	}
}

func TestAcceptCommand_UnknownInvitation(t *testing.T) {
	_, stderr, code := runCommand(t, commands.NewAcceptCmd(), newFixture(), []string{"9999"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: share not found: 9999\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestInviteCommand(t *testing.T) {
	f := newFixture()
	id := f.pending.ID

	stdout, _, code := runCommand(t, &commands.InviteCmd{}, f, []string{fmt.Sprint(id)}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasPrefix(stdout, "task #12: Lunch\n") {
		t.Errorf("expected task detail, got %q", stdout)
	}
	hint := fmt.Sprintf("run: todocal accept %d  or  todocal decline %d\n", id, id)
	if !strings.HasSuffix(stdout, hint) {
		t.Errorf("expected hint %q, got %q", hint, stdout)
	}
}

// Tests for login, signup, logout and whoami commands
func TestLoginCommand(t *testing.T) {
	f := newFixture()
	cfg := newConfig(t, false)
	cmd := &commands.LoginCmd{}
	cmd.SetPassword("pw-b")

	stdout, stderr, code := runWithConfig(t, cmd, cfg, f, []string{"bob"})

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "logged in as bob\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	sess, err := session.Load(cfg.SessionPath())
	if err != nil {
		t.Fatalf("failed to load saved session: %v", err)
	}
	if sess.UserID != 2 || sess.Token != testutil.TokenFor(2) || sess.Username != "bob" {
		t.Errorf("unexpected session %+v", sess)
	}
	info, err := os.Stat(cfg.SessionPath())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestLoginCommand_PasswordFromInput(t *testing.T) {
	f := newFixture()
	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader("pw-a\n"))

	stdout, _, code := runCommand(t, cmd, f, []string{"alice"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "logged in as alice\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

func TestLoginCommand_WrongPassword(t *testing.T) {
	f := newFixture()
	cfg := newConfig(t, false)
	cmd := &commands.LoginCmd{}
	cmd.SetPassword("nope")

	_, stderr, code := runWithConfig(t, cmd, cfg, f, []string{"bob"})

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "Incorrect username or password") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if cfg.HasSession() {
		t.Error("no session should be saved")
	}
}

func TestLoginCommand_NoPassword(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cmd.SetInput(strings.NewReader(""))

	_, stderr, code := runCommand(t, cmd, newFixture(), []string{"bob"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: password required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestSignupCommand(t *testing.T) {
	f := newFixture()
	cmd := &commands.SignupCmd{}
	cmd.SetInput(strings.NewReader("secret\nsecret\n"))

	stdout, stderr, code := runCommand(t, cmd, f, []string{"dave"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "account created (run: todocal login dave)\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if _, err := f.svc.Login(context.Background(), "dave", "secret"); err != nil {
		t.Errorf("new account should log in: %v", err)
	}
}

func TestSignupCommand_Errors(t *testing.T) {
	tests := []struct {
		name          string
		pw, confirm   string
		user          string
		wantCode      int
		wantErrSubstr string
	}{
		{"mismatch", "one", "two", "dave", exitcode.UserError, "passwords do not match"},
		{"taken", "pw", "pw", "bob", exitcode.UserError, "backend rejected request: 409"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &commands.SignupCmd{}
			cmd.SetPasswords(tt.pw, tt.confirm)

			_, stderr, code := runCommand(t, cmd, newFixture(), []string{tt.user}, false)

			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(stderr, tt.wantErrSubstr) {
				t.Errorf("expected %q in %q", tt.wantErrSubstr, stderr)
			}
		})
	}
}

func TestWhoamiCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.WhoamiCmd{}, newFixture(), nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "bob (user 2)\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

// Tests for config command
func TestConfigCommand_Init(t *testing.T) {
	cfg := newConfig(t, false)

	stdout, stderr, code := runWithConfig(t, &commands.ConfigCmd{}, cfg, nil, []string{"init"})
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "wrote "+cfg.SettingsPath()+"\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	_, stderr, code = runWithConfig(t, &commands.ConfigCmd{}, cfg, nil, []string{"init"})
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "already exists") {
		t.Errorf("unexpected stderr %q", stderr)
	}

	force := &commands.ConfigCmd{}
	force.SetForce(true)
	_, _, code = runWithConfig(t, force, cfg, nil, []string{"init"})
	if code != exitcode.Success {
		t.Errorf("expected --force to overwrite, got exit code %d", code)
	}

	settings, err := config.LoadSettings(cfg.SettingsPath())
	if err != nil {
		t.Fatalf("written config should load: %v", err)
	}
	if settings.BackendURL != config.DefaultBackendURL {
		t.Errorf("unexpected backend url %q", settings.BackendURL)
	}
}

func TestConfigCommand_Path(t *testing.T) {
	cfg := newConfig(t, false)

	stdout, _, code := runWithConfig(t, &commands.ConfigCmd{}, cfg, nil, []string{"path"})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != cfg.SettingsPath()+"\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
}

// Tests for export command
type fakeExporter struct {
	listTitle string
	exported  []service.Task
	err       error
}

func (e *fakeExporter) EnsureList(ctx context.Context, title string) (string, error) {
	e.listTitle = title
	return "list-1", e.err
}

func (e *fakeExporter) Export(ctx context.Context, listID string, items []service.Task) (googletasks.Result, error) {
	e.exported = items
	return googletasks.Result{Created: len(items) - 1, Skipped: 1}, nil
}

func TestExportCommand(t *testing.T) {
	f := newFixture()
	exp := &fakeExporter{}
	cmd := &commands.ExportCmd{}
	cmd.SetDate(testWeek)
	cmd.SetExporterFactory(func(ctx context.Context, cfg *config.Config) (commands.Exporter, error) {
		return exp, nil
	})

	stdout, stderr, code := runCommand(t, cmd, f, nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "exported 1, skipped 1\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if exp.listTitle != config.DefaultGoogleList {
		t.Errorf("expected default list, got %q", exp.listTitle)
	}
	if len(exp.exported) != 2 || exp.exported[0].ID != 10 || exp.exported[1].ID != 11 {
		t.Errorf("expected own and accepted tasks, got %+v", exp.exported)
	}
}

func TestExportCommand_NotAuthorized(t *testing.T) {
	cmd := &commands.ExportCmd{}
	cmd.SetExporterFactory(func(ctx context.Context, cfg *config.Config) (commands.Exporter, error) {
		return nil, fmt.Errorf("%w: not authorized for Google Tasks (run: todocal google-login)", service.ErrUnauthorized)
	})

	_, stderr, code := runCommand(t, cmd, newFixture(), nil, false)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr, "todocal google-login") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestExportCommand_ListFailure(t *testing.T) {
	exp := &fakeExporter{err: errors.New("quota exceeded")}
	cmd := &commands.ExportCmd{}
	cmd.SetExporterFactory(func(ctx context.Context, cfg *config.Config) (commands.Exporter, error) {
		return exp, nil
	})

	_, stderr, code := runCommand(t, cmd, newFixture(), nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: backend error: quota exceeded\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if exp.exported != nil {
		t.Error("export should not run after list failure")
	}
}

// Tests for id parsing
func TestParseID(t *testing.T) {
	tests := []struct {
		args    []string
		want    int64
		wantErr bool
	}{
		{[]string{"12"}, 12, false},
		{[]string{"#12"}, 12, false},
		{[]string{"0"}, 0, true},
		{[]string{"-3"}, 0, true},
		{[]string{"abc"}, 0, true},
		{[]string{"1", "2"}, 0, true},
	}
	for _, tt := range tests {
		got, err := commands.ParseID(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseID(%v) = %d, want %d", tt.args, got, tt.want)
		}
	}

	if _, err := commands.ParseID(nil); !errors.Is(err, commands.ErrIDRequired) {
		t.Errorf("expected ErrIDRequired, got %v", err)
	}
}
