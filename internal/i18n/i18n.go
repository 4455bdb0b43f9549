// Package i18n holds the display text for every supported language.
package i18n

import (
	"fmt"

	"github.com/verte-zerg/hangman/internal/model"
)

// Key names one label.
type Key string

// Label keys.
const (
	Title         Key = "title"
	Attempts      Key = "attempts"
	Time          Key = "time"
	Hint          Key = "hint"
	HintUsed      Key = "hintUsed"
	NewWord       Key = "newWord"
	Restart       Key = "restart"
	Language      Key = "language"
	Quit          Key = "quit"
	History       Key = "history"
	HistoryEmpty  Key = "historyEmpty"
	Word          Key = "word"
	Result        Key = "result"
	Win           Key = "win"
	Loss          Key = "loss"
	YouWin        Key = "youWin"
	YouLose       Key = "youLose"
	TimeUp        Key = "timeUp"
	WordWas       Key = "wordWas"
	Loading       Key = "loading"
	FetchFailed   Key = "fetchFailed"
	StorageFailed Key = "storageFailed"
	Wrong         Key = "wrong"
	PlayAgain     Key = "playAgain"
	WinRate       Key = "winRate"
	Streak        Key = "streak"
	BestStreak    Key = "bestStreak"
	Played        Key = "played"
)

// Keys lists every label key.
var Keys = []Key{
	Title, Attempts, Time, Hint, HintUsed, NewWord, Restart, Language, Quit,
	History, HistoryEmpty, Word, Result, Win, Loss, YouWin, YouLose, TimeUp,
	WordWas, Loading, FetchFailed, StorageFailed, Wrong, PlayAgain, WinRate,
	Streak, BestStreak, Played,
}

var tables = map[model.Language]map[Key]string{
	model.LangEN: {
		Title:         "Hangman",
		Attempts:      "Attempts left",
		Time:          "Time left",
		Hint:          "Hint",
		HintUsed:      "Hint used",
		NewWord:       "New word",
		Restart:       "Restart game",
		Language:      "Language",
		Quit:          "Quit",
		History:       "History",
		HistoryEmpty:  "No games yet",
		Word:          "Word",
		Result:        "Result",
		Win:           "Win",
		Loss:          "Loss",
		YouWin:        "You won!",
		YouLose:       "You lost!",
		TimeUp:        "Time's up!",
		WordWas:       "The word was",
		Loading:       "Fetching a word",
		FetchFailed:   "Could not fetch a word",
		StorageFailed: "History is not being saved",
		Wrong:         "Wrong letters",
		PlayAgain:     "Press enter for a new word",
		WinRate:       "Win rate",
		Streak:        "Current streak",
		BestStreak:    "Best streak",
		Played:        "Played",
	},
	model.LangES: {
		Title:         "Ahorcado",
		Attempts:      "Intentos restantes",
		Time:          "Tiempo restante",
		Hint:          "Pista",
		HintUsed:      "Pista usada",
		NewWord:       "Nueva palabra",
		Restart:       "Reiniciar juego",
		Language:      "Idioma",
		Quit:          "Salir",
		History:       "Historial",
		HistoryEmpty:  "Aún no hay partidas",
		Word:          "Palabra",
		Result:        "Resultado",
		Win:           "Victoria",
		Loss:          "Derrota",
		YouWin:        "¡Ganaste!",
		YouLose:       "¡Perdiste!",
		TimeUp:        "¡Se acabó el tiempo!",
		WordWas:       "La palabra era",
		Loading:       "Buscando una palabra",
		FetchFailed:   "No se pudo obtener una palabra",
		StorageFailed: "El historial no se está guardando",
		Wrong:         "Letras incorrectas",
		PlayAgain:     "Pulsa enter para una nueva palabra",
		WinRate:       "Porcentaje de victorias",
		Streak:        "Racha actual",
		BestStreak:    "Mejor racha",
		Played:        "Jugadas",
	},
	model.LangFR: {
		Title:         "Pendu",
		Attempts:      "Essais restants",
		Time:          "Temps restant",
		Hint:          "Indice",
		HintUsed:      "Indice utilisé",
		NewWord:       "Nouveau mot",
		Restart:       "Recommencer",
		Language:      "Langue",
		Quit:          "Quitter",
		History:       "Historique",
		HistoryEmpty:  "Aucune partie pour l'instant",
		Word:          "Mot",
		Result:        "Résultat",
		Win:           "Victoire",
		Loss:          "Défaite",
		YouWin:        "Gagné !",
		YouLose:       "Perdu !",
		TimeUp:        "Temps écoulé !",
		WordWas:       "Le mot était",
		Loading:       "Recherche d'un mot",
		FetchFailed:   "Impossible d'obtenir un mot",
		StorageFailed: "L'historique n'est pas enregistré",
		Wrong:         "Lettres fausses",
		PlayAgain:     "Appuyez sur entrée pour un nouveau mot",
		WinRate:       "Taux de victoire",
		Streak:        "Série actuelle",
		BestStreak:    "Meilleure série",
		Played:        "Parties",
	},
}

var languageNames = map[model.Language]map[model.Language]string{
	model.LangEN: {model.LangEN: "English", model.LangES: "Spanish", model.LangFR: "French"},
	model.LangES: {model.LangEN: "Inglés", model.LangES: "Español", model.LangFR: "Francés"},
	model.LangFR: {model.LangEN: "Anglais", model.LangES: "Espagnol", model.LangFR: "Français"},
}

// T returns the label for key in lang, falling back to English.
func T(lang model.Language, key Key) string {
	if table, ok := tables[lang]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}
	if s, ok := tables[model.LangEN][key]; ok {
		return s
	}
	return string(key)
}

// Labels returns a copy of every label for lang.
func Labels(lang model.Language) map[string]string {
	out := make(map[string]string, len(Keys))
	for _, key := range Keys {
		out[string(key)] = T(lang, key)
	}
	return out
}

// LanguageName returns the name of lang written in display.
func LanguageName(display, lang model.Language) string {
	if names, ok := languageNames[display]; ok {
		if s, ok := names[lang]; ok {
			return s
		}
	}
	return string(lang)
}

// ResultLabel localizes a stored result.
func ResultLabel(lang model.Language, result model.Result) string {
	switch result {
	case model.ResultWin:
		return T(lang, Win)
	case model.ResultLoss:
		return T(lang, Loss)
	default:
		return string(result)
	}
}

// Countdown formats seconds as m:ss.
func Countdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
