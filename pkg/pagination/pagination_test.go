package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2025, 6, 1, 9, 30, 0, 123456789, time.FixedZone("x", 3600)), ID: uuid.New()}
	token := EncodeCursor(in)
	assert.False(t, strings.ContainsAny(token, "+/="))

	out, err := ParseCursor(" " + token + " ")
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorRejectsMalformed(t *testing.T) {
	cur, err := ParseCursor("")
	assert.NoError(t, err)
	assert.Nil(t, cur)

	for _, raw := range []string{"no-separator", "not-a-time|" + uuid.NewString(), time.Now().Format(time.RFC3339Nano) + "|nope"} {
		_, err := ParseCursor(base64.RawURLEncoding.EncodeToString([]byte(raw)))
		assert.Error(t, err, raw)
	}
	_, err = ParseCursor("###")
	assert.Error(t, err)
}

func TestTrimReportsNextPage(t *testing.T) {
	type row struct {
		at time.Time
		id uuid.UUID
	}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{base.Add(3 * time.Minute), uuid.New()}, {base.Add(2 * time.Minute), uuid.New()}, {base.Add(time.Minute), uuid.New()}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, cursorOf)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, rows[1].id, next.ID)

	page, next = Trim(rows[:2], 2, cursorOf)
	assert.Len(t, page, 2)
	assert.Nil(t, next)
}
