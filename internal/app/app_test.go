package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmp-dialogue/internal/chain"
	"cmp-dialogue/internal/model"
	"cmp-dialogue/internal/summarize"
)

type fakeStore struct {
	text      string
	ok        bool
	locations []string
	calls     int
}

func (f *fakeStore) Retrieve(_ context.Context, _ string, allowed []string) (string, bool) {
	f.calls++
	f.locations = allowed
	return f.text, f.ok
}

type fakeChains struct {
	replies map[chain.Handle]string
	err     error
	calls   []chain.Handle
	vars    []chain.Vars
}

func (f *fakeChains) Invoke(_ context.Context, h chain.Handle, vars chain.Vars) (string, error) {
	f.calls = append(f.calls, h)
	f.vars = append(f.vars, vars)
	if f.err != nil {
		return "", f.err
	}
	return f.replies[h], nil
}

type fakePersister struct {
	docs []model.Document
	err  error
}

func (f *fakePersister) Save(_ context.Context, docs []model.Document) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func newDialogue(store ContextStore, chains ChainInvoker, p Persister, save bool) *DialogueService {
	return NewDialogueService(store, chains, p, summarize.NewSummarizer(), DialogueOptions{
		SaveToStore:      save,
		BrandInstruction: "BRAND",
	})
}

func TestAskTeacherUsesContextAndPersists(t *testing.T) {
	store := &fakeStore{text: "NextJS là framework React", ok: true}
	chains := &fakeChains{replies: map[chain.Handle]string{chain.Professor: "Chào em, NextJS ..."}}
	p := &fakePersister{}

	answer, err := newDialogue(store, chains, p, true).AskTeacher(context.Background(), "  NextJS là gì? ")
	require.NoError(t, err)
	assert.Equal(t, "Chào em, NextJS ...", answer)

	assert.Equal(t, AskTeacher.Locations, store.locations)
	require.Len(t, chains.vars, 1)
	assert.Equal(t, chain.Vars{Question: "NextJS là gì?", Context: "NextJS là framework React", BrandInstruction: "BRAND"}, chains.vars[0])

	require.Len(t, p.docs, 1)
	assert.Equal(t, "Chào em, NextJS ...", p.docs[0].Text)
	assert.Equal(t, LocationAskTeacher, p.docs[0].Location)
	assert.Equal(t, "alex_professor_it", p.docs[0].Topic)
}

func TestStudentAskTeacherPassesAnswer(t *testing.T) {
	store := &fakeStore{text: "câu trả lời trước", ok: true}
	chains := &fakeChains{replies: map[chain.Handle]string{chain.Student: "Vậy còn SSR thì sao?"}}
	p := &fakePersister{}

	_, err := newDialogue(store, chains, p, true).StudentAskTeacher(context.Background(), "NextJS là gì?")
	require.NoError(t, err)

	assert.Equal(t, []string{LocationMeetingWithTeacher, LocationAskTeacher, LocationSummarize}, store.locations)
	assert.Equal(t, []chain.Handle{chain.Student}, chains.calls)
	assert.Equal(t, "câu trả lời trước", chains.vars[0].Answer)
	assert.Empty(t, chains.vars[0].Context)
	require.Len(t, p.docs, 1)
	assert.Equal(t, LocationStudentAskTeacher, p.docs[0].Location)
	assert.Equal(t, "alice_student_it", p.docs[0].Topic)
}

func TestMeetingWithTeacherDegradesGracefully(t *testing.T) {
	chains := &fakeChains{replies: map[chain.Handle]string{chain.Professor: "ok"}}
	p := &fakePersister{err: errors.New("db down")}

	answer, err := newDialogue(&fakeStore{}, chains, p, true).MeetingWithTeacher(context.Background(), "q?")
	require.NoError(t, err, "missing context and failed persistence are not request failures")
	assert.Equal(t, "ok", answer)
	assert.Empty(t, chains.vars[0].Context)
}

func TestConverseCompletionFailureSurfaces(t *testing.T) {
	cause := errors.New("llm unavailable")
	p := &fakePersister{}
	_, err := newDialogue(&fakeStore{}, &fakeChains{err: cause}, p, true).AskTeacher(context.Background(), "q?")
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, p.docs)
}

func TestConverseRejectsBlankQuestion(t *testing.T) {
	store := &fakeStore{}
	chains := &fakeChains{}
	_, err := newDialogue(store, chains, nil, true).AskTeacher(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, store.calls)
	assert.Empty(t, chains.calls)
}

func TestSaveToggle(t *testing.T) {
	chains := &fakeChains{replies: map[chain.Handle]string{chain.Professor: "ok"}}
	p := &fakePersister{}
	d := newDialogue(&fakeStore{}, chains, p, false)

	_, err := d.AskTeacher(context.Background(), "q?")
	require.NoError(t, err)
	_, err = d.Summarize(context.Background(), "Một câu khá dài để tóm tắt lại.")
	require.NoError(t, err)
	assert.Empty(t, p.docs)
}

func TestSummarizePersistsSummary(t *testing.T) {
	p := &fakePersister{}
	text := "Go là ngôn ngữ lập trình của Google. Go hỗ trợ goroutine để xử lý đồng thời."

	summary, err := newDialogue(nil, &fakeChains{}, p, true).Summarize(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, text, summary)
	require.Len(t, p.docs, 1)
	assert.Equal(t, LocationSummarize, p.docs[0].Location)
	assert.Equal(t, "alex_professor_it", p.docs[0].Topic)

	_, err = newDialogue(nil, &fakeChains{}, p, true).Summarize(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExtractQuestions(t *testing.T) {
	d := newDialogue(nil, &fakeChains{}, nil, false)
	assert.Equal(t, []string{"em muốn biết NextJS dùng để làm gì?"}, d.ExtractQuestions("Xin chào thầy, em muốn biết NextJS dùng để làm gì?"))
}

type scriptedSearcher struct {
	results [][]string
	errs    []error
	queries []string
}

func (s *scriptedSearcher) Search(_ context.Context, query string, _, _ int) ([]string, error) {
	i := len(s.queries)
	s.queries = append(s.queries, query)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], err
	}
	return nil, err
}

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	text, ok := f.pages[url]
	return text, ok && text != "", nil
}

func (f *fakeFetcher) FetchAll(ctx context.Context, urls []string) []*string {
	out := make([]*string, len(urls))
	for i, u := range urls {
		if text, ok, _ := f.Fetch(ctx, u); ok {
			out[i] = &text
		}
	}
	return out
}

func newSources(s *scriptedSearcher, f ContentFetcher, c ChainInvoker) *SourceService {
	return NewSourceService(s, f, c, summarize.NewSummarizer(), nil)
}

func TestFindSourcesFirstStage(t *testing.T) {
	s := &scriptedSearcher{results: [][]string{{"https://nextjs.org/docs"}}}
	chains := &fakeChains{}

	links, err := newSources(s, &fakeFetcher{}, chains).FindSources(context.Background(), "Xin chào thầy, em muốn biết NextJS dùng để làm gì?", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://nextjs.org/docs"}, links)
	assert.Equal(t, []string{"em muốn biết NextJS dùng để làm gì?"}, s.queries)
	assert.Empty(t, chains.calls)
}

func TestFindSourcesSecondStage(t *testing.T) {
	s := &scriptedSearcher{
		results: [][]string{nil, {"https://react.dev"}},
		errs:    []error{errors.New("search throttled")},
	}
	links, err := newSources(s, &fakeFetcher{}, &fakeChains{}).FindSources(context.Background(), "NextJS là gì?", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://react.dev"}, links)
	assert.Len(t, s.queries, 2)
}

func TestFindSourcesFallsBackToLinkGenerator(t *testing.T) {
	s := &scriptedSearcher{}
	chains := &fakeChains{replies: map[chain.Handle]string{
		chain.LinkGenerator: "- Link 1: https://nextjs.org/docs\n- Link 2: https://vercel.com/blog\n- Link 3: https://react.dev/learn",
	}}

	links, err := newSources(s, &fakeFetcher{}, chains).FindSources(context.Background(), "NextJS là gì?", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://nextjs.org/docs", "https://vercel.com/blog"}, links)
	assert.Len(t, s.queries, 2, "both search stages ran first")
	assert.Equal(t, []chain.Handle{chain.LinkGenerator}, chains.calls)
	assert.Equal(t, "NextJS là gì?", chains.vars[0].Question)
}

func TestFindSourcesAllStagesEmpty(t *testing.T) {
	chains := &fakeChains{replies: map[chain.Handle]string{chain.LinkGenerator: "Xin lỗi, tôi không có liên kết."}}
	_, err := newSources(&scriptedSearcher{}, &fakeFetcher{}, chains).FindSources(context.Background(), "NextJS là gì?", 5, 0)
	assert.ErrorIs(t, err, ErrNoLinks)

	_, err = newSources(&scriptedSearcher{}, &fakeFetcher{}, &fakeChains{err: errors.New("down")}).FindSources(context.Background(), "NextJS là gì?", 5, 0)
	assert.ErrorIs(t, err, ErrNoLinks)

	_, err = newSources(&scriptedSearcher{}, &fakeFetcher{}, &fakeChains{}).FindSources(context.Background(), "", 5, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFetchContent(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://a.dev": "nội dung"}}
	src := newSources(&scriptedSearcher{}, f, &fakeChains{})

	text, err := src.FetchContent(context.Background(), "https://a.dev")
	require.NoError(t, err)
	assert.Equal(t, "nội dung", text)

	_, err = src.FetchContent(context.Background(), "https://b.dev")
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = src.FetchContent(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestFetchContents(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{"https://a.dev": "một", "https://c.dev": "ba"}}
	src := newSources(&scriptedSearcher{}, f, &fakeChains{})

	got, err := src.FetchContents(context.Background(), []string{"https://a.dev", "https://b.dev", "https://c.dev"})
	require.NoError(t, err)
	assert.Equal(t, []string{"một", "", "ba"}, got)

	_, err = src.FetchContents(context.Background(), []string{"https://b.dev"})
	assert.ErrorIs(t, err, ErrNoContent)
}
