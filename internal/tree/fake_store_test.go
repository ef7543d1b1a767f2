package tree

import (
	"context"
	"errors"

	"github.com/S1riyS/vaultfs/internal/models"
)

var errBoom = errors.New("boom")

// fakeStore answers from fixtures keyed by store path. Paths present in the
// fail maps return errBoom.
type fakeStore struct {
	lists    map[string][]string
	meta     map[string]models.GroupMetadata
	data     map[string][]models.KeyValue
	failList map[string]bool
	failMeta map[string]bool
	failData map[string]bool

	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:    map[string][]string{},
		meta:     map[string]models.GroupMetadata{},
		data:     map[string][]models.KeyValue{},
		failList: map[string]bool{},
		failMeta: map[string]bool{},
		failData: map[string]bool{},
	}
}

func (s *fakeStore) List(_ context.Context, path string) ([]string, error) {
	s.calls = append(s.calls, "list "+path)
	if s.failList[path] {
		return nil, errBoom
	}
	return s.lists[path], nil
}

func (s *fakeStore) GroupMetadata(_ context.Context, path string) (*models.GroupMetadata, error) {
	s.calls = append(s.calls, "meta "+path)
	if s.failMeta[path] {
		return nil, errBoom
	}
	m := s.meta[path]
	return &m, nil
}

func (s *fakeStore) GroupData(_ context.Context, path string) ([]models.KeyValue, error) {
	s.calls = append(s.calls, "data "+path)
	if s.failData[path] {
		return nil, errBoom
	}
	return s.data[path], nil
}

// fixtureStore is:
//
//	/app/           directory
//	/app/web        group {token}
//	/app/jobs/      directory
//	/app/jobs/cron  group {schedule, owner}
//	/db             group {user, pass}
//	/db_backup      group {url}
func fixtureStore() *fakeStore {
	s := newFakeStore()
	s.lists["/"] = []string{"app/", "db", "db_backup"}
	s.lists["/app/"] = []string{"web", "jobs/"}
	s.lists["/app/jobs/"] = []string{"cron"}

	s.meta["/db"] = models.GroupMetadata{
		CreatedTime: "2024-01-02T03:04:05.123456Z",
		UpdatedTime: "2024-02-03T04:05:06.5Z",
	}
	s.data["/db"] = []models.KeyValue{{Key: "user", Value: "alice"}, {Key: "pass", Value: "s3cr3t"}}
	s.data["/db_backup"] = []models.KeyValue{{Key: "url", Value: "s3://backups"}}
	s.data["/app/web"] = []models.KeyValue{{Key: "token", Value: "abc"}}
	s.data["/app/jobs/cron"] = []models.KeyValue{{Key: "schedule", Value: "@daily"}, {Key: "owner", Value: "ops"}}
	return s
}
