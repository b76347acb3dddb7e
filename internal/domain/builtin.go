package domain

import (
	"fmt"
	"time"
)

// BuiltinBankID is reserved for the bank that ships with the game.
const BuiltinBankID = "builtin"

var builtinCreatedAt = time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC)

type builtinEntry struct {
	text    string
	options []string
	correct int
}

var builtinEntries = []builtinEntry{
	{"Which planet is known as the Red Planet?", []string{"Venus", "Mars", "Jupiter", "Mercury"}, 1},
	{"What is the largest ocean on Earth?", []string{"Atlantic", "Indian", "Pacific", "Arctic"}, 2},
	{"How many continents are there?", []string{"5", "6", "7", "8"}, 2},
	{"What is the chemical symbol for gold?", []string{"Au", "Ag", "Gd", "Go"}, 0},
	{"Which gas do plants absorb from the air?", []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, 2},
	{"What is the capital of Japan?", []string{"Osaka", "Kyoto", "Tokyo", "Nagoya"}, 2},
	{"Who painted the Mona Lisa?", []string{"Michelangelo", "Leonardo da Vinci", "Raphael", "Donatello"}, 1},
	{"What is the boiling point of water at sea level in Celsius?", []string{"90", "100", "110", "120"}, 1},
	{"Which is the longest river in Africa?", []string{"Nile", "Congo", "Niger", "Zambezi"}, 0},
	{"How many sides does a hexagon have?", []string{"5", "6", "7", "8"}, 1},
	{"Which organ pumps blood through the body?", []string{"Lungs", "Liver", "Heart", "Kidneys"}, 2},
	{"What is the smallest prime number?", []string{"0", "1", "2", "3"}, 2},
	{"Which instrument has 88 keys?", []string{"Piano", "Organ"}, 0},
	{"In which year did humans first land on the Moon?", []string{"1965", "1969", "1972", "1975"}, 1},
	{"What is the hardest natural substance?", []string{"Quartz", "Iron", "Diamond", "Granite"}, 2},
	{"Which language has the most native speakers?", []string{"English", "Spanish", "Mandarin Chinese", "Hindi"}, 2},
	{"What is the freezing point of water in Fahrenheit?", []string{"0", "32", "100", "212"}, 1},
	{"Is the Sun a star?", []string{"Yes", "No"}, 0},
	{"Which animal is the largest mammal?", []string{"African elephant", "Blue whale", "Giraffe", "Orca"}, 1},
	{"How many minutes are in a full day?", []string{"1440", "1200", "3600", "720"}, 0},
}

// BuiltinBank returns a fresh copy of the bank that ships with the game. It is never persisted.
func BuiltinBank() QuestionBank {
	questions := make([]Question, 0, len(builtinEntries))
	for i, entry := range builtinEntries {
		qid := builtinQuestionID(i)
		options := make([]Option, len(entry.options))
		for j, text := range entry.options {
			options[j] = Option{ID: fmt.Sprintf("%s-%c", qid, 'a'+j), Text: text}
		}
		questions = append(questions, Question{
			ID:              qid,
			Text:            entry.text,
			Options:         options,
			CorrectOptionID: options[entry.correct].ID,
		})
	}
	return QuestionBank{
		ID:        BuiltinBankID,
		Name:      "General Knowledge",
		Kind:      BankBuiltin,
		Questions: questions,
		CreatedAt: builtinCreatedAt,
	}
}

func builtinQuestionID(i int) string {
	return fmt.Sprintf("q%03d", i+1)
}
