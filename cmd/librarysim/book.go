package main

import "fmt"

// Book is the demo record type the library simulation stores: one row
// per book, keyed uniquely by ISBN. Grounded on src/book.py's Book
// dataclass; Go's lack of operator overloading means the page-count
// ordering __gt__/__lt__ offered no room to carry forward, but the
// one-shot "read" callable does, as String below.
type Book struct {
	Title  string
	Author string
	Year   int
	Genre  string
	ISBN   int64
	Pages  int
}

// String renders the book the way __call__ in the original announced a
// read: "Reading book <title>".
func (b Book) String() string {
	return fmt.Sprintf("Reading book %s", b.Title)
}

// EventType names one of the actions the simulation's event loop can
// pick each step.
type EventType string

const (
	EventAdd             EventType = "add"
	EventRemoveBook      EventType = "remove_book"
	EventReadBook        EventType = "read_book"
	EventValidQuery      EventType = "valid_query"
	EventZeroResultQuery EventType = "zero_result_query"
	EventUpdateBook      EventType = "update_book"
)

var allEventTypes = []EventType{
	EventAdd, EventRemoveBook, EventReadBook, EventValidQuery, EventZeroResultQuery, EventUpdateBook,
}

// Event is one simulated action and its outcome, grounded on
// src/simulation.py's Event dataclass.
type Event struct {
	Type   EventType
	Args   []any
	Result bool
}

func (e Event) String() string {
	return fmt.Sprintf("Event(type=%s, args=%v, result=%v)", e.Type, e.Args, e.Result)
}
