package validate_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/app/validate"
	"github.com/slok/questline/internal/log"
	"github.com/slok/questline/internal/model"
	"github.com/slok/questline/internal/storage/storagemock"
	"github.com/slok/questline/internal/validation"
)

func TestNewService(t *testing.T) {
	tests := map[string]struct {
		config validate.ServiceConfig
		expErr bool
	}{
		"valid config should create service": {
			config: validate.ServiceConfig{
				Repository: &storagemock.MockDefinitionRepository{},
				Logger:     log.Noop,
			},
		},
		"missing repository should fail": {
			config: validate.ServiceConfig{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			svc, err := validate.NewService(test.config)

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

func qid(id model.QuestID) *model.QuestID { return &id }

func TestService_Run(t *testing.T) {
	// Reports an error on quest 2 and an info on every definition.
	validators := []validation.Validator{
		validation.ValidatorFunc(func(def model.Definition) []model.ValidationIssue {
			issues := []model.ValidationIssue{{QuestID: def.ID, Severity: model.IssueSeverityInfo, Description: "info"}}
			if def.ID == 2 {
				issues = append(issues, model.ValidationIssue{QuestID: def.ID, Severity: model.IssueSeverityError, Description: "error"})
			}
			return issues
		}),
	}

	defs := []model.Definition{{ID: 2}, {ID: 1}}

	tests := map[string]struct {
		mock      func(m *storagemock.MockDefinitionRepository)
		req       validate.Request
		expResult *validate.Result
		expErr    bool
	}{
		"Validating all the definitions should return the sorted issues.": {
			mock: func(m *storagemock.MockDefinitionRepository) {
				m.On("ListDefinitions", mock.Anything).Once().Return(defs, nil)
			},
			req: validate.Request{},
			expResult: &validate.Result{
				Issues: []model.ValidationIssue{
					{QuestID: 1, Severity: model.IssueSeverityInfo, Description: "info"},
					{QuestID: 2, Severity: model.IssueSeverityError, Description: "error"},
					{QuestID: 2, Severity: model.IssueSeverityInfo, Description: "info"},
				},
				Errors: 1,
				Infos:  2,
			},
		},
		"Filtering by quest should only return the issues of that quest.": {
			mock: func(m *storagemock.MockDefinitionRepository) {
				m.On("ListDefinitions", mock.Anything).Once().Return(defs, nil)
			},
			req: validate.Request{QuestID: qid(1)},
			expResult: &validate.Result{
				Issues: []model.ValidationIssue{
					{QuestID: 1, Severity: model.IssueSeverityInfo, Description: "info"},
				},
				Infos: 1,
			},
		},
		"No definitions should return no issues.": {
			mock: func(m *storagemock.MockDefinitionRepository) {
				m.On("ListDefinitions", mock.Anything).Once().Return([]model.Definition{}, nil)
			},
			req:       validate.Request{},
			expResult: &validate.Result{Issues: []model.ValidationIssue{}},
		},
		"A repository error should fail the validation.": {
			mock: func(m *storagemock.MockDefinitionRepository) {
				m.On("ListDefinitions", mock.Anything).Once().Return(nil, fmt.Errorf("something"))
			},
			req:    validate.Request{},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := storagemock.NewMockDefinitionRepository(t)
			test.mock(m)

			svc, err := validate.NewService(validate.ServiceConfig{
				Repository: m,
				Validators: validators,
			})
			require.NoError(err)

			result, err := svc.Run(context.Background(), test.req)

			if test.expErr {
				assert.Error(err)
			} else if assert.NoError(err) {
				assert.Equal(test.expResult, result)
				assert.Equal(test.expResult.Errors > 0, result.HasErrors())
			}
		})
	}
}
