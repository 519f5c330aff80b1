package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain query",
			in:   "SELECT count() FROM posts",
			want: "SELECT count() FROM posts",
		},
		{
			name: "code fence with language",
			in:   "```sql\nSELECT count() FROM posts\n```",
			want: "SELECT count() FROM posts",
		},
		{
			name: "bare code fence",
			in:   "```\nSELECT 1 FROM posts\n```",
			want: "SELECT 1 FROM posts",
		},
		{
			name: "trailing semicolon",
			in:   "SELECT count() FROM posts;",
			want: "SELECT count() FROM posts",
		},
		{
			name: "surrounding whitespace",
			in:   "  \n SELECT author FROM posts \n ",
			want: "SELECT author FROM posts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeSQL(tt.in))
		})
	}
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{
			name: "simple select",
			in:   "SELECT count() FROM posts WHERE project_tag = 'solana'",
		},
		{
			name: "qualified table",
			in:   "SELECT avg(sentiment_score) FROM social.posts",
		},
		{
			name:    "empty",
			in:      "",
			wantErr: true,
		},
		{
			name:    "not a select",
			in:      "SHOW TABLES",
			wantErr: true,
		},
		{
			name:    "mutation keyword",
			in:      "SELECT 1 FROM posts UNION ALL SELECT 1; DROP TABLE posts",
			wantErr: true,
		},
		{
			name:    "alter smuggled in",
			in:      "SELECT 1 FROM posts WHERE 'ALTER ' = text",
			wantErr: true,
		},
		{
			name:    "wrong table",
			in:      "SELECT count() FROM system.tables",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSQL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
