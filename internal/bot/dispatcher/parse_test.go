package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		prefix  string
		content string
		name    string
		args    []string
		ok      bool
	}{
		{"!", "!dice 20", "dice", []string{"20"}, true},
		{"!", "!Dice", "dice", []string{}, true},
		{"!", "!stalk start \"some user\"", "stalk", []string{"start", "some user"}, true},
		{"!", "!  echo   a  b ", "echo", []string{"a", "b"}, true},
		{">>", ">>ping", "ping", []string{}, true},
		{"!", "dice 20", "", nil, false},
		{"!", "!", "", nil, false},
		{"!", "!   ", "", nil, false},
		{"", "dice", "", nil, false},
	}

	for _, tt := range tests {
		name, args, ok := Parse(tt.prefix, tt.content)
		assert.Equal(t, tt.ok, ok, tt.content)
		assert.Equal(t, tt.name, name, tt.content)
		if tt.ok {
			assert.Equal(t, tt.args, append([]string{}, args...), tt.content)
		}
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, Tokenize(`a "b c" d`))
	assert.Equal(t, []string{"a", ""}, Tokenize(`a ""`))
	assert.Equal(t, []string{"x", "unterminated quote"}, Tokenize(`x "unterminated quote`))
	assert.Equal(t, []string{"ab c"}, Tokenize(`a"b c"`))
	assert.Nil(t, Tokenize("   "))
}
