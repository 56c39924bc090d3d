package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/app/history"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage"
	"github.com/slok/questline/internal/storage/storagemock"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config history.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: history.ServiceConfig{Repository: &storagemock.MockJournalRepository{}},
		},
		"missing repository should fail": {
			config: history.ServiceConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := history.NewService(test.config)

			if test.expErr {
				require.Error(err)
				require.Nil(svc)
			} else {
				require.NoError(err)
				require.NotNil(svc)
			}
		})
	}
}

func TestService_ListRuns(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	quest := model.QuestID(7)

	runs := []model.Run{
		{ID: "run-2", QuestID: 7, Status: model.RunStatusCompleted, StartedAt: t0.Add(time.Hour)},
		{ID: "run-1", QuestID: 7, Status: model.RunStatusFailed, StartedAt: t0},
	}

	tests := map[string]struct {
		mock    func(m *storagemock.MockJournalRepository)
		req     history.ListRequest
		expRuns []model.Run
		expErr  bool
	}{
		"Listing runs should return the repository runs.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("ListRuns", mock.Anything, storage.ListRunsOpts{}).Once().Return(runs, nil)
			},
			req:     history.ListRequest{},
			expRuns: runs,
		},
		"Filters should be passed to the repository.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("ListRuns", mock.Anything, storage.ListRunsOpts{QuestID: &quest, Limit: 1}).Once().Return(runs[:1], nil)
			},
			req:     history.ListRequest{QuestID: &quest, Limit: 1},
			expRuns: runs[:1],
		},
		"A negative limit should fail.": {
			mock:   func(m *storagemock.MockJournalRepository) {},
			req:    history.ListRequest{Limit: -1},
			expErr: true,
		},
		"A repository error should fail.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("ListRuns", mock.Anything, mock.Anything).Once().Return(nil, fmt.Errorf("something"))
			},
			req:    history.ListRequest{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockJournalRepository(t)
			test.mock(m)

			svc, err := history.NewService(history.ServiceConfig{Repository: m})
			require.NoError(err)

			gotRuns, err := svc.ListRuns(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else if assert.NoError(err) {
				assert.Equal(test.expRuns, gotRuns)
			}
		})
	}
}

func TestService_GetRun(t *testing.T) {
	run := model.Run{ID: "run-1", QuestID: 7, Status: model.RunStatusFailed, Error: "boom"}
	tasks := []model.TaskRecord{
		{ID: "t1", RunID: "run-1", Index: 0, Name: "Move(1)", Result: "done"},
		{ID: "t2", RunID: "run-1", Index: 1, Name: "Interact(10)", Result: "fault", Error: "boom"},
	}

	tests := map[string]struct {
		mock      func(m *storagemock.MockJournalRepository)
		runID     string
		expDetail *history.RunDetail
		expErr    error
	}{
		"Getting a run should return it with its tasks.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("GetRun", mock.Anything, "run-1").Once().Return(&run, nil)
				m.On("ListTaskRecords", mock.Anything, "run-1").Once().Return(tasks, nil)
			},
			runID:     "run-1",
			expDetail: &history.RunDetail{Run: run, Tasks: tasks},
		},
		"A missing run ID should fail.": {
			mock:   func(m *storagemock.MockJournalRepository) {},
			runID:  "",
			expErr: model.ErrNotValid,
		},
		"A missing run should fail with not found.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("GetRun", mock.Anything, "run-9").Once().Return(nil, model.ErrNotFound)
			},
			runID:  "run-9",
			expErr: model.ErrNotFound,
		},
		"A task listing error should fail.": {
			mock: func(m *storagemock.MockJournalRepository) {
				m.On("GetRun", mock.Anything, "run-1").Once().Return(&run, nil)
				m.On("ListTaskRecords", mock.Anything, "run-1").Once().Return(nil, model.ErrDataFault)
			},
			runID:  "run-1",
			expErr: model.ErrDataFault,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockJournalRepository(t)
			test.mock(m)

			svc, err := history.NewService(history.ServiceConfig{Repository: m})
			require.NoError(err)

			detail, err := svc.GetRun(context.Background(), test.runID)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
			} else if assert.NoError(err) {
				assert.Equal(test.expDetail, detail)
			}
		})
	}
}
