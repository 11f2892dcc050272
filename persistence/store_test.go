package persistence

import (
	"testing"

	"github.com/getsocialkit/socialkit/simulate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	return store
}

func TestPostTaskLifecycle(t *testing.T) {
	store := openTestStore(t)

	task := &simulate.PostTask{
		TaskID:      "t-1",
		Status:      simulate.TaskStatusSuccess,
		Msg:         "accepted",
		CallbackURL: "https://host/cb",
	}
	if err := store.SavePostTask(task, "youtube", "acct", "title"); err != nil {
		t.Fatalf("SavePostTask: %v", err)
	}

	task.Status = simulate.TaskStatusFail
	task.Msg = "upload rejected"
	if err := store.UpdatePostTask(task); err != nil {
		t.Fatalf("UpdatePostTask: %v", err)
	}

	record, err := store.GetPostTask("t-1")
	if err != nil {
		t.Fatalf("GetPostTask: %v", err)
	}
	if record == nil {
		t.Fatal("task not found after save")
	}
	if record.Status != int(simulate.TaskStatusFail) || record.Msg != "upload rejected" {
		t.Fatalf("update not applied: %+v", record)
	}
	if record.Media != "youtube" || record.Title != "title" {
		t.Fatalf("submit fields lost: %+v", record)
	}
}

func TestGetPostTaskMissing(t *testing.T) {
	store := openTestStore(t)
	record, err := store.GetPostTask("nope")
	if err != nil {
		t.Fatalf("GetPostTask: %v", err)
	}
	if record != nil {
		t.Fatalf("want nil for missing task, got %+v", record)
	}
}

func TestUpdatePostTaskUnknownIsNoop(t *testing.T) {
	store := openTestStore(t)
	err := store.UpdatePostTask(&simulate.PostTask{TaskID: "ghost", Status: simulate.TaskStatusSuccess})
	if err != nil {
		t.Fatalf("UpdatePostTask on unknown task: %v", err)
	}
}

func TestBindAttemptUpsert(t *testing.T) {
	store := openTestStore(t)

	info := &simulate.BindInfo{
		TaskID:  "b-1",
		UserID:  "u-1",
		Account: "someone",
		Media:   "facebook",
		Status:  simulate.BindStatusNeedVerification,
	}
	if err := store.SaveBindAttempt(info); err != nil {
		t.Fatalf("SaveBindAttempt: %v", err)
	}

	info.Status = simulate.BindStatusBound
	info.SocialID = "s-9"
	info.DisplayName = "Someone"
	if err := store.SaveBindAttempt(info); err != nil {
		t.Fatalf("SaveBindAttempt upsert: %v", err)
	}

	record, err := store.GetBindAttempt("b-1")
	if err != nil {
		t.Fatalf("GetBindAttempt: %v", err)
	}
	if record == nil {
		t.Fatal("attempt not found")
	}
	if record.Status != int(simulate.BindStatusBound) || record.SocialID != "s-9" {
		t.Fatalf("upsert not applied: %+v", record)
	}

	attempts, err := store.ListBindAttempts("u-1")
	if err != nil {
		t.Fatalf("ListBindAttempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("upsert created a duplicate: %d records", len(attempts))
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("oracle", "dsn"); err == nil {
		t.Fatal("want error for unregistered backend")
	}
}
