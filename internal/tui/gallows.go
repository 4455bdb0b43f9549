package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

var gallowsStages = []string{
	`
  +---+
  |   |
      |
      |
      |
      |
=========`,
	`
  +---+
  |   |
  O   |
      |
      |
      |
=========`,
	`
  +---+
  |   |
  O   |
  |   |
      |
      |
=========`,
	`
  +---+
  |   |
  O   |
 /|   |
      |
      |
=========`,
	`
  +---+
  |   |
  O   |
 /|\  |
      |
      |
=========`,
	`
  +---+
  |   |
  O   |
 /|\  |
 /    |
      |
=========`,
	`
  +---+
  |   |
  O   |
 /|\  |
 / \  |
      |
=========`,
}

// gallowsStage maps wrong guesses onto the drawing so that the last stage
// is reached exactly when the attempt budget runs out.
func gallowsStage(wrong, maxAttempts int) int {
	last := len(gallowsStages) - 1
	if maxAttempts <= 0 || wrong <= 0 {
		return 0
	}
	if wrong >= maxAttempts {
		return last
	}
	stage := wrong * last / maxAttempts
	if stage == 0 {
		stage = 1
	}
	return stage
}

func renderGallows(wrong, maxAttempts int) string {
	lines := strings.Split(strings.TrimPrefix(gallowsStages[gallowsStage(wrong, maxAttempts)], "\n"), "\n")
	width := 0
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > width {
			width = w
		}
	}
	for i, line := range lines {
		lines[i] = runewidth.FillRight(line, width)
	}
	return strings.Join(lines, "\n")
}
