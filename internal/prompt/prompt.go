// Package prompt wraps the interactive confirmations the CLI asks
// before destructive or system-changing steps. The survey dependency
// is isolated here behind a seam so orchestration code and tests never
// touch a real terminal.
package prompt

import (
	"github.com/AlecAivazis/survey/v2"
)

// askOne is a seam for tests; production code asks through survey.
var askOne = func(p survey.Prompt, response interface{}) error {
	return survey.AskOne(p, response)
}

// Confirm asks a yes/no question and returns the answer. A closed or
// interrupted prompt surfaces as an error so the caller can treat it
// as a declined run.
func Confirm(message string, defaultAnswer bool) (bool, error) {
	answer := defaultAnswer
	if err := askOne(&survey.Confirm{Message: message, Default: defaultAnswer}, &answer); err != nil {
		return false, err
	}
	return answer, nil
}
