package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(v bool) *bool { return &v }

func TestMatchTiers(t *testing.T) {
	tools := []ToolCallView{
		{ID: "a", Name: "bash", Status: ToolRunning},
		{ID: "b", Name: "read_file", Status: ToolSuccess},
		{ID: "c", Name: "bash", Status: ToolRunning},
	}

	tests := []struct {
		name      string
		toolUseID string
		toolName  string
		wantIdx   int
		wantTier  MatchTier
	}{
		{
			name:      "exact id wins over newer running call of same name",
			toolUseID: "a",
			toolName:  "bash",
			wantIdx:   0,
			wantTier:  MatchExact,
		},
		{
			name:     "no id falls back to latest running call with the name",
			toolName: "bash",
			wantIdx:  2,
			wantTier: MatchName,
		},
		{
			name:     "resolved calls are skipped by the name tier",
			toolName: "read_file",
			wantIdx:  2,
			wantTier: MatchAny,
		},
		{
			name:     "unknown name falls back to latest running call of any name",
			toolName: "write_file",
			wantIdx:  2,
			wantTier: MatchAny,
		},
		{
			name:      "unknown id falls through to the name tier",
			toolUseID: "zzz",
			toolName:  "bash",
			wantIdx:   2,
			wantTier:  MatchName,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, tier := Match(tools, tt.toolUseID, tt.toolName)
			assert.Equal(t, tt.wantIdx, idx)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestMatchOrphanWhenNothingRunning(t *testing.T) {
	tools := []ToolCallView{
		{ID: "a", Name: "bash", Status: ToolSuccess},
		{ID: "b", Name: "bash", Status: ToolFailed},
	}
	idx, tier := Match(tools, "", "bash")
	assert.Equal(t, -1, idx)
	assert.Equal(t, MatchOrphan, tier)

	idx, tier = Match(nil, "", "")
	assert.Equal(t, -1, idx)
	assert.Equal(t, MatchOrphan, tier)
}

func TestInferSuccess(t *testing.T) {
	tests := []struct {
		name     string
		explicit *bool
		content  string
		want     bool
	}{
		{name: "failure marker prefix", content: "[FAILED] exit code 1", want: false},
		{name: "ok content", content: "[OK]\n\nfile1.txt", want: true},
		{name: "plain content", content: "drwxr-xr-x", want: true},
		{name: "marker mid-content is not failure", content: "grep found [FAILED] in log", want: true},
		{name: "explicit true beats marker", explicit: boolPtr(true), content: "[FAILED] but flagged ok", want: true},
		{name: "explicit false beats clean content", explicit: boolPtr(false), content: "looks fine", want: false},
		{name: "empty content", content: "", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferSuccess(tt.explicit, tt.content))
		})
	}
}
