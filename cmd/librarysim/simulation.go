package main

import (
	"errors"
	"log"
	"math/rand"

	"github.com/acksell/ormtab/collection"
	"github.com/acksell/ormtab/constraint"
	"github.com/acksell/ormtab/session"
)

var (
	defaultAuthors = []string{"Author 1", "Author 2", "Author 3", "Author 4"}
	defaultGenres  = []string{"Genre 1", "Genre 2", "Genre 3"}
	defaultTitles  = []string{"Title 1", "Title 2", "Title 3", "Title 4", "Title 5"}
)

const (
	defaultPagesMin = 50
	defaultPagesMax = 900
	defaultYearMin  = 1950
	defaultYearMax  = 2024
	isbnMin         = 1_000_000_000_000
	isbnMax         = 9_999_999_999_999
)

// SimulationResults is the end state a simulation run reports: the final
// row set, and the full event history that produced it. Grounded on
// src/simulation.py's SimulationResults.
type SimulationResults struct {
	Result  *collection.Immutable[Book]
	History []Event
}

// LibrarySimulation drives a scripted sequence of random table
// operations against a "library" table of Book rows, exercising insert,
// select, update, delete and their ConstraintFailed/rollback paths end
// to end. Grounded on src/simulation.py's LibrarySimulation.
type LibrarySimulation struct {
	sess    *session.Session
	history []Event
	logger  *log.Logger
	rng     *rand.Rand

	authors []string
	genres  []string
	titles  []string
}

// NewLibrarySimulation builds a simulation seeded from seed, logging
// through logger (nil uses log.Default()).
func NewLibrarySimulation(seed int64, logger *log.Logger) *LibrarySimulation {
	if logger == nil {
		logger = log.Default()
	}
	return &LibrarySimulation{
		sess:    session.New(logger),
		logger:  logger,
		rng:     rand.New(rand.NewSource(seed)),
		authors: defaultAuthors,
		genres:  defaultGenres,
		titles:  defaultTitles,
	}
}

func (s *LibrarySimulation) initTable() error {
	if err := session.CreateDtype(s.sess, "book", Book{}); err != nil {
		return err
	}
	if err := session.CreateTable[Book](s.sess, "book", "library"); err != nil {
		return err
	}
	if err := s.sess.CreateConstraint("library", constraint.Unique, "ISBN"); err != nil {
		return err
	}
	if err := s.sess.CreateIdx("library", "base", "Genre"); err != nil {
		return err
	}
	if err := s.sess.CreateIdx("library", "base", "Author"); err != nil {
		return err
	}
	if err := s.sess.CreateIdx("library", "range", "Year"); err != nil {
		return err
	}

	initial := []Book{
		{Title: "Title 1", Author: "Author 1", Year: 2000, Genre: "Genre 1", ISBN: 1234567890123, Pages: 100},
		{Title: "Title 2", Author: "Author 2", Year: 2015, Genre: "Genre 1", ISBN: 1234567890124, Pages: 150},
		{Title: "Title 3", Author: "Author 2", Year: 2010, Genre: "Genre 2", ISBN: 1234567890125, Pages: 125},
	}
	for _, book := range initial {
		if err := s.sess.Transaction(func() error {
			return session.Insert(s.sess, "library", book)
		}); err != nil {
			return err
		}
	}
	s.logger.Println("simulation: table initialized")
	return nil
}

func (s *LibrarySimulation) randomBook() (Book, bool) {
	books, err := session.SelectRows[Book](s.sess, "library", nil)
	if err != nil || books.Len() == 0 {
		s.logger.Println("simulation: no books found")
		return Book{}, false
	}
	return books.Get(s.rng.Intn(books.Len())), true
}

func (s *LibrarySimulation) processAdd() {
	book := Book{
		Title:  s.titles[s.rng.Intn(len(s.titles))],
		Author: s.authors[s.rng.Intn(len(s.authors))],
		Genre:  s.genres[s.rng.Intn(len(s.genres))],
		Year:   defaultYearMin + s.rng.Intn(defaultYearMax-defaultYearMin+1),
		ISBN:   isbnMin + s.rng.Int63n(isbnMax-isbnMin+1),
		Pages:  defaultPagesMin + s.rng.Intn(defaultPagesMax-defaultPagesMin+1),
	}
	event := Event{Type: EventAdd, Args: []any{book.Title, book.Author, book.Genre, book.Year, book.Pages, book.ISBN}, Result: true}

	err := s.sess.Transaction(func() error {
		return session.Insert(s.sess, "library", book)
	})
	var failed *constraint.FailedError
	if errors.As(err, &failed) {
		s.logger.Println("simulation: failed to add book, unique constraint failed")
		event.Result = false
	} else if err != nil {
		s.logger.Printf("simulation: failed to add book: %v", err)
		event.Result = false
	}
	s.logger.Println(event.String())
	s.history = append(s.history, event)
}

func (s *LibrarySimulation) processRemove() {
	event := Event{Type: EventRemoveBook, Result: true}
	book, ok := s.randomBook()
	if !ok {
		s.logger.Println("simulation: failed to remove book, none are present")
		event.Result = false
	} else {
		event.Args = []any{book.ISBN}
		err := s.sess.Transaction(func() error {
			_, err := session.Delete(s.sess, "library", map[string]any{"ISBN": book.ISBN})
			return err
		})
		if err != nil {
			s.logger.Printf("simulation: %v", err)
			event.Result = false
		}
	}
	s.history = append(s.history, event)
	s.logger.Println(event.String())
}

func (s *LibrarySimulation) processRead() {
	event := Event{Type: EventReadBook, Result: true}
	book, ok := s.randomBook()
	if !ok {
		s.logger.Println("simulation: failed to read book, none are present")
		event.Result = false
	} else {
		s.logger.Println(book.String())
		event.Args = []any{book.ISBN}
	}
	s.history = append(s.history, event)
	s.logger.Println(event.String())
}

func (s *LibrarySimulation) processValidQuery() {
	action := s.rng.Intn(3)
	event := Event{Type: EventValidQuery, Args: []any{action}, Result: true}

	var (
		query string
		n     int
	)
	switch action {
	case 0:
		rows, err := session.SelectRows[Book](s.sess, "library", map[string]any{"Year__ge": 2000, "Year__lt": 2011})
		if err == nil {
			n = rows.Len()
		}
		query = "year"
	case 1:
		rows, err := session.SelectRows[Book](s.sess, "library", map[string]any{"Pages__gt": defaultPagesMin})
		if err == nil {
			n = rows.Len()
		}
		query = "pages"
	default:
		book, ok := s.randomBook()
		if !ok {
			s.logger.Println("simulation: failed to get book, none are present")
			event.Result = false
		} else {
			rows, err := session.SelectRows[Book](s.sess, "library", map[string]any{"ISBN": book.ISBN})
			if err == nil {
				n = rows.Len()
			}
		}
		query = "isbn"
	}
	s.logger.Printf("simulation: got %d results by %s query", n, query)
	s.history = append(s.history, event)
	s.logger.Println(event.String())
}

func (s *LibrarySimulation) processNotFoundQuery() {
	rows, _ := session.SelectRows[Book](s.sess, "library", map[string]any{"Pages__lt": defaultPagesMin - 1})
	s.logger.Printf("simulation: got %d results by page query (0 expected)", rows.Len())
	event := Event{Type: EventZeroResultQuery, Result: true}
	s.history = append(s.history, event)
	s.logger.Println(event.String())
}

func (s *LibrarySimulation) processUpdateBook() {
	event := Event{Type: EventUpdateBook, Result: true}
	book, ok := s.randomBook()
	if !ok {
		s.logger.Println("simulation: failed to update book, none are present")
		event.Result = false
	} else {
		title := s.titles[s.rng.Intn(len(s.titles))]
		author := s.authors[s.rng.Intn(len(s.authors))]
		event.Args = []any{book.ISBN, title, author}

		err := s.sess.Transaction(func() error {
			updates := map[string]any{"Title": title, "Author": author}
			_, err := session.Update(s.sess, "library", map[string]any{"ISBN": book.ISBN}, updates)
			return err
		})
		var failed *constraint.FailedError
		if errors.As(err, &failed) {
			s.logger.Println("simulation: failed to update book, unique constraint failed")
			event.Result = false
		} else if err != nil {
			s.logger.Printf("simulation: %v", err)
			event.Result = false
		}
	}
	s.history = append(s.history, event)
	s.logger.Println(event.String())
}

// Run executes steps random events against a freshly initialized table
// and returns the final row set alongside the full event history.
func (s *LibrarySimulation) Run(steps int) (SimulationResults, error) {
	if err := s.initTable(); err != nil {
		return SimulationResults{}, err
	}
	for i := 0; i < steps; i++ {
		switch allEventTypes[s.rng.Intn(len(allEventTypes))] {
		case EventAdd:
			s.processAdd()
		case EventRemoveBook:
			s.processRemove()
		case EventReadBook:
			s.processRead()
		case EventValidQuery:
			s.processValidQuery()
		case EventZeroResultQuery:
			s.processNotFoundQuery()
		case EventUpdateBook:
			s.processUpdateBook()
		}
	}

	results, err := session.SelectRows[Book](s.sess, "library", nil)
	if err != nil {
		return SimulationResults{}, err
	}
	return SimulationResults{Result: results, History: s.history}, nil
}
