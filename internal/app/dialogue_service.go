package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cmp-dialogue/internal/chain"
	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/model"
	"cmp-dialogue/internal/question"
	"cmp-dialogue/internal/summarize"
	"cmp-dialogue/internal/vectorstore"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoLinks      = errors.New("no links found")
	ErrNoContent    = errors.New("no content found")
)

const (
	LocationSummarize          = "summarize"
	LocationAskTeacher         = "ask_teacher"
	LocationMeetingWithTeacher = "meeting_with_teacher"
	LocationStudentAskTeacher  = "student_ask_teacher"
)

// Capability describes one conversational turn: where its context comes
// from, which prompt answers it and how the answer is remembered.
type Capability struct {
	Name         string
	Locations    []string
	Chain        chain.Handle
	SaveLocation string
	SaveTopic    string
}

var (
	AskTeacher = Capability{
		Name:         "ask_teacher",
		Locations:    []string{LocationStudentAskTeacher, LocationMeetingWithTeacher, LocationAskTeacher, LocationSummarize},
		Chain:        chain.Professor,
		SaveLocation: LocationAskTeacher,
		SaveTopic:    string(chain.Professor),
	}
	MeetingWithTeacher = Capability{
		Name:         "meeting_with_teacher",
		Locations:    []string{LocationStudentAskTeacher, LocationMeetingWithTeacher, LocationAskTeacher, LocationSummarize},
		Chain:        chain.Professor,
		SaveLocation: LocationMeetingWithTeacher,
		SaveTopic:    string(chain.Professor),
	}
	StudentAskTeacher = Capability{
		Name:         "student_ask_teacher",
		Locations:    []string{LocationMeetingWithTeacher, LocationAskTeacher, LocationSummarize},
		Chain:        chain.Student,
		SaveLocation: LocationStudentAskTeacher,
		SaveTopic:    string(chain.Student),
	}
)

type ContextStore interface {
	Retrieve(ctx context.Context, query string, allowedLocations []string) (string, bool)
}

type ChainInvoker interface {
	Invoke(ctx context.Context, h chain.Handle, vars chain.Vars) (string, error)
}

// Persister remembers finished turns, either directly in the vector store or
// through the persist queue.
type Persister interface {
	Save(ctx context.Context, docs []model.Document) error
}

type PersistFunc func(ctx context.Context, docs []model.Document) error

func (f PersistFunc) Save(ctx context.Context, docs []model.Document) error {
	return f(ctx, docs)
}

type DialogueOptions struct {
	SaveToStore      bool
	BrandInstruction string
	SummarySentences int
	Logger           logger.Logger
}

type DialogueService struct {
	store            ContextStore
	chains           ChainInvoker
	persister        Persister
	summarizer       question.Summarizer
	saveToStore      bool
	brandInstruction string
	summarySentences int
	log              logger.Logger
}

func NewDialogueService(
	store ContextStore,
	chains ChainInvoker,
	persister Persister,
	summarizer question.Summarizer,
	opts DialogueOptions,
) *DialogueService {
	if opts.SummarySentences <= 0 {
		opts.SummarySentences = summarize.DefaultSentences
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &DialogueService{
		store:            store,
		chains:           chains,
		persister:        persister,
		summarizer:       summarizer,
		saveToStore:      opts.SaveToStore,
		brandInstruction: opts.BrandInstruction,
		summarySentences: opts.SummarySentences,
		log:              opts.Logger,
	}
}

func (s *DialogueService) AskTeacher(ctx context.Context, q string) (string, error) {
	return s.Converse(ctx, AskTeacher, q)
}

func (s *DialogueService) MeetingWithTeacher(ctx context.Context, q string) (string, error) {
	return s.Converse(ctx, MeetingWithTeacher, q)
}

// StudentAskTeacher asks the student role for a follow-up question to the
// closest stored answer.
func (s *DialogueService) StudentAskTeacher(ctx context.Context, q string) (string, error) {
	return s.Converse(ctx, StudentAskTeacher, q)
}

// Converse runs one turn of capability c. Missing context and failed saves
// degrade silently; only the completion failure is returned.
func (s *DialogueService) Converse(ctx context.Context, c Capability, q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrInvalidInput
	}

	retrieved := ""
	if s.store != nil {
		if text, ok := s.store.Retrieve(ctx, q, c.Locations); ok {
			retrieved = text
		}
	}

	vars := chain.Vars{Question: q, BrandInstruction: s.brandInstruction}
	if c.Chain == chain.Student {
		vars.Answer = retrieved
	} else {
		vars.Context = retrieved
	}

	answer, err := s.chains.Invoke(ctx, c.Chain, vars)
	if err != nil {
		s.log.Error("dialogue", "chain invocation failed", map[string]interface{}{
			"capability": c.Name,
			"error":      err,
		})
		return "", fmt.Errorf("%s: %w", c.Name, err)
	}

	s.remember(ctx, answer, c.SaveLocation, c.SaveTopic)
	return answer, nil
}

// Summarize condenses text extractively and remembers the summary.
func (s *DialogueService) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidInput
	}
	summary := s.summarizer.Summarize(text, s.summarySentences)
	s.remember(ctx, summary, LocationSummarize, string(chain.Professor))
	return summary, nil
}

func (s *DialogueService) ExtractQuestions(text string) []string {
	return question.Extract(text)
}

func (s *DialogueService) remember(ctx context.Context, text, location, topic string) {
	if !s.saveToStore || s.persister == nil || strings.TrimSpace(text) == "" {
		return
	}
	doc := vectorstore.NewDocument(text, location, topic)
	if err := s.persister.Save(ctx, []model.Document{doc}); err != nil {
		s.log.Error("dialogue", "persist turn failed", map[string]interface{}{
			"location": location,
			"error":    err,
		})
	}
}
