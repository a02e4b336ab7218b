package prompt

import (
	"errors"
	"testing"

	"github.com/AlecAivazis/survey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAskOne replaces the survey seam for one test.
func stubAskOne(t *testing.T, fn func(p survey.Prompt, response interface{}) error) {
	t.Helper()
	original := askOne
	askOne = fn
	t.Cleanup(func() { askOne = original })
}

// TestConfirmAnswers verifies that the user's answer comes through and
// the question text is the one we asked.
func TestConfirmAnswers(t *testing.T) {
	var asked string
	stubAskOne(t, func(p survey.Prompt, response interface{}) error {
		confirm, ok := p.(*survey.Confirm)
		require.True(t, ok)
		asked = confirm.Message
		*(response.(*bool)) = true
		return nil
	})

	answer, err := Confirm("Remove volumes?", false)
	require.NoError(t, err)
	assert.True(t, answer)
	assert.Equal(t, "Remove volumes?", asked)
}

// TestConfirmInterrupted verifies that a prompt error reads as a
// declined confirmation plus the error.
func TestConfirmInterrupted(t *testing.T) {
	stubAskOne(t, func(survey.Prompt, interface{}) error {
		return errors.New("interrupt")
	})

	answer, err := Confirm("Proceed?", true)
	require.Error(t, err)
	assert.False(t, answer)
}
