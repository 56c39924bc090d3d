package io

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/questline/internal/model"
)

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }
func u32(v uint32) *uint32 { return &v }

func TestDefinitionYAMLRepositoryGetDefinition(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expDef model.Definition
		expErr bool
		errMsg string
	}{
		"A complete definition should load successfully.": {
			fs: fstest.MapFS{
				"quests/65.yaml": &fstest.MapFile{
					Data: []byte(`id: 65
name: Close to Home
sequences:
  - sequence: 0
    steps:
      - interaction: accept_quest
        data_id: 1001
        territory_id: 132
        position: {x: 1.5, y: 2, z: -3}
        dialogue_choices:
          - type: yes_no
            prompt: Accept the quest?
          - type: list
            prompt: What will you do?
            answer: Ask about the crystals.
  - sequence: 1
    steps:
      - interaction: use_item
        data_id: 2001
        item_id: 5
        stop_distance: 3
        territory_id: 132
        completion_quest_variables_flags: [16, null, {high: 2}, 0, 0, 0]
        skip_conditions:
          step_if:
            in_territory: [140]
            quest_accepted: 66
          teleport_shortcut_if:
            in_same_territory: true
        next_quest_id: 66
  - sequence: 255
    steps:
      - interaction: complete_quest
        data_id: 1001
        territory_id: 132
`),
				},
			},
			path: "quests/65.yaml",
			expDef: model.Definition{
				ID:   65,
				Name: "Close to Home",
				Kind: model.DefinitionKindQuest,
				Sequences: []model.Sequence{
					{ID: 0, Steps: []model.Step{{
						Interaction: model.InteractionAcceptQuest,
						DataID:      u32(1001),
						TerritoryID: 132,
						Position:    &model.Vec3{X: 1.5, Y: 2, Z: -3},
						DialogueChoices: []model.DialogueChoice{
							{Type: model.DialogueChoiceYesNo, Prompt: "Accept the quest?", Yes: true},
							{Type: model.DialogueChoiceList, Prompt: "What will you do?", Answer: "Ask about the crystals.", Yes: true},
						},
					}}},
					{ID: 1, Steps: []model.Step{{
						Interaction:  model.InteractionUseItem,
						DataID:       u32(2001),
						ItemID:       u32(5),
						StopDistance: func() *float64 { v := 3.0; return &v }(),
						TerritoryID:  132,
						CompletionFlags: []*model.QuestWorkValue{
							{High: u8(1), Low: u8(0)},
							nil,
							{High: u8(2)},
							{High: u8(0), Low: u8(0)},
							{High: u8(0), Low: u8(0)},
							{High: u8(0), Low: u8(0)},
						},
						SkipConditions: &model.SkipConditions{
							Step: &model.StepSkipConditions{
								InTerritory:   []uint16{140},
								QuestAccepted: func() *model.QuestID { v := model.QuestID(66); return &v }(),
							},
							TeleportShortcutIf: &model.ShortcutSkipConditions{InSameTerritory: true},
						},
						NextQuestID: func() *model.QuestID { v := model.QuestID(66); return &v }(),
					}}},
					{ID: 255, Steps: []model.Step{{
						Interaction: model.InteractionCompleteQuest,
						DataID:      u32(1001),
						TerritoryID: 132,
					}}},
				},
			},
		},

		"A definition without ID should take it from the file name.": {
			fs: fstest.MapFS{
				"1234_leve.yml": &fstest.MapFile{
					Data: []byte(`kind: leve
sequences:
  - sequence: 0
    steps:
      - interaction: initiate_leve
        target_territory_id: 9
`),
				},
			},
			path: "1234_leve.yml",
			expDef: model.Definition{
				ID:   1234,
				Kind: model.DefinitionKindLeve,
				Sequences: []model.Sequence{
					{ID: 0, Steps: []model.Step{{Interaction: model.InteractionInitiateLeve, TargetTerritoryID: u16(9)}}},
				},
			},
		},

		"A definition without ID on a file without a number should fail.": {
			fs: fstest.MapFS{
				"leve.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
			},
			path:   "leve.yaml",
			expErr: true,
			errMsg: "id is required",
		},

		"An unknown interaction should fail.": {
			fs: fstest.MapFS{
				"1.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0, steps: [{interaction: dance}]}]\n")},
			},
			path:   "1.yaml",
			expErr: true,
			errMsg: `unknown interaction "dance"`,
		},

		"An unknown kind should fail.": {
			fs: fstest.MapFS{
				"1.yaml": &fstest.MapFile{Data: []byte("kind: raid\nsequences: [{sequence: 0}]\n")},
			},
			path:   "1.yaml",
			expErr: true,
			errMsg: `unknown kind "raid"`,
		},

		"A definition without sequences should fail.": {
			fs: fstest.MapFS{
				"1.yaml": &fstest.MapFile{Data: []byte("name: empty\n")},
			},
			path:   "1.yaml",
			expErr: true,
			errMsg: "at least one sequence is required",
		},

		"An out of range nibble should fail.": {
			fs: fstest.MapFS{
				"1.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0, steps: [{interaction: none, completion_quest_variables_flags: [{low: 16}]}]}]\n")},
			},
			path:   "1.yaml",
			expErr: true,
			errMsg: "low nibble out of range",
		},

		"Missing file should return error.": {
			fs:     fstest.MapFS{},
			path:   "nonexistent.yaml",
			expErr: true,
			errMsg: "reading definition file",
		},

		"Invalid YAML should return error.": {
			fs: fstest.MapFS{
				"invalid.yaml": &fstest.MapFile{
					Data: []byte(`invalid: yaml: content: {}`),
				},
			},
			path:   "invalid.yaml",
			expErr: true,
			errMsg: "parsing YAML",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewDefinitionYAMLRepository(tc.fs, "")
			def, err := repo.GetDefinition(context.Background(), tc.path)

			if tc.expErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expDef, def)
		})
	}
}

func TestDefinitionYAMLRepositoryLoadDefinitions(t *testing.T) {
	tests := map[string]struct {
		fs      fstest.MapFS
		pattern string
		expIDs  []model.QuestID
		expErr  bool
	}{
		"Definitions on any directory depth should be loaded sorted by path.": {
			fs: fstest.MapFS{
				"b/2.yaml":      &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
				"a/deep/3.yml":  &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
				"1.yaml":        &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
				"README.md":     &fstest.MapFile{Data: []byte("# quests\n")},
				"b/notes.txt":   &fstest.MapFile{Data: []byte("whatever")},
				"c/10_foo.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
			},
			expIDs: []model.QuestID{1, 3, 2, 10},
		},

		"A custom pattern should only load the matching files.": {
			fs: fstest.MapFS{
				"quests/1.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
				"leves/2.yaml":  &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
			},
			pattern: "leves/*.yaml",
			expIDs:  []model.QuestID{2},
		},

		"An invalid file should fail the whole load.": {
			fs: fstest.MapFS{
				"1.yaml": &fstest.MapFile{Data: []byte("sequences: [{sequence: 0}]\n")},
				"2.yaml": &fstest.MapFile{Data: []byte("name: broken\n")},
			},
			expErr: true,
		},

		"An empty directory should load nothing.": {
			fs:     fstest.MapFS{},
			expIDs: []model.QuestID{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo := NewDefinitionYAMLRepository(tc.fs, tc.pattern)
			defs, err := repo.LoadDefinitions(context.Background())

			if tc.expErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			gotIDs := []model.QuestID{}
			for _, d := range defs {
				gotIDs = append(gotIDs, d.ID)
			}
			assert.Equal(t, tc.expIDs, gotIDs)
		})
	}
}

func TestDefinitionYAMLRepositoryGetDefinitionContextCancellation(t *testing.T) {
	fs := fstest.MapFS{
		"1.yaml": &fstest.MapFile{
			Data: []byte("sequences: [{sequence: 0}]\n"),
		},
	}

	repo := NewDefinitionYAMLRepository(fs, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := repo.GetDefinition(ctx, "1.yaml")
	require.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}
