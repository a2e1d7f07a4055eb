package storage

import "sort"

// ULIDs sort lexicographically in creation order, so ordering by id gives
// chronological listings without tracking a separate sequence.

func sortNotesByID(notes []Note) {
	sort.Slice(notes, func(i, j int) bool { return notes[i].ID < notes[j].ID })
}

func sortRemindersByID(reminders []Reminder) {
	sort.Slice(reminders, func(i, j int) bool { return reminders[i].ID < reminders[j].ID })
}
