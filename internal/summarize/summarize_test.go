package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentences(t *testing.T) {
	tok := NewTokenizer()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
		{
			name: "terminators and closing quotes",
			text: `NextJS là framework. Bạn đã dùng chưa? "Rất tốt!" Thử đi;`,
			want: []string{"NextJS là framework.", "Bạn đã dùng chưa?", `"Rất tốt!"`, "Thử đi;"},
		},
		{
			name: "abbreviations do not split",
			text: "PGS. TS. Nguyễn Văn A giảng dạy tại TP. Hồ Chí Minh. Ông rất giỏi.",
			want: []string{"PGS. TS. Nguyễn Văn A giảng dạy tại TP. Hồ Chí Minh.", "Ông rất giỏi."},
		},
		{
			name: "short trailing fragment dropped",
			text: "Câu thứ nhất kết thúc ở đây. còn lại ít",
			want: []string{"Câu thứ nhất kết thúc ở đây."},
		},
		{
			name: "long trailing fragment kept",
			text: "Câu đầu tiên. phần cuối này dài hơn ba từ",
			want: []string{"Câu đầu tiên.", "phần cuối này dài hơn ba từ"},
		},
		{
			name: "only a fragment returns the input",
			text: "  xin chào  ",
			want: []string{"xin chào"},
		},
		{
			name: "ellipsis",
			text: "Đang suy nghĩ… Xong rồi.",
			want: []string{"Đang suy nghĩ…", "Xong rồi."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Sentences(tt.text))
		})
	}
}

func TestSentencesRejoinKeepsContent(t *testing.T) {
	tok := NewTokenizer()
	inputs := []string{
		"Go là ngôn ngữ lập trình.   Nó được Google phát triển!\nBạn có thích Go không?",
		"GS. Alex nói: \"Hãy học đều đặn.\" Sinh viên đồng ý; buổi học kết thúc.",
		"Một câu duy nhất không có dấu chấm nhưng đủ dài",
	}
	strip := func(s string) string { return strings.Join(strings.Fields(s), "") }
	for _, in := range inputs {
		got := tok.Sentences(in)
		assert.Equal(t, strip(in), strip(strings.Join(got, " ")), in)
	}
}

func TestWords(t *testing.T) {
	tok := NewTokenizer()
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"punctuation dropped", "Xin chào, thế giới!", []string{"Xin", "chào", "thế", "giới"}},
		{"hyphenated compound kept", "hướng đông-nam của thành phố", []string{"hướng", "đông-nam", "của", "thành", "phố"}},
		{"single vietnamese letters kept", "à ừ đ", []string{"à", "ừ", "đ"}},
		{"digits kept", "Go 1 . 22", []string{"Go", "1", "22"}},
		{"empty", "  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tok.Words(tt.text))
		})
	}
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("Và"))
	assert.True(t, IsStopWord("không"))
	assert.False(t, IsStopWord("framework"))
}

const lecture = "Go là một ngôn ngữ lập trình do Google phát triển. " +
	"Goroutine giúp viết chương trình đồng thời rất dễ dàng. " +
	"Thời tiết hôm nay khá đẹp. " +
	"Channel cho phép các goroutine trao đổi dữ liệu an toàn. " +
	"Trình biên dịch Go tạo ra tệp thực thi tĩnh. " +
	"Goroutine và channel là nền tảng của lập trình đồng thời trong Go. " +
	"Tôi thích ăn phở."

func TestSummarizeKeepsOrderAndLimit(t *testing.T) {
	s := NewSummarizer()
	all := NewTokenizer().Sentences(lecture)
	require.Len(t, all, 7)

	for n := 1; n <= 8; n++ {
		summary := s.Summarize(lecture, n)
		picked := NewTokenizer().Sentences(summary)
		want := n
		if want > len(all) {
			want = len(all)
		}
		assert.Len(t, picked, want, "n=%d", n)

		last := -1
		for _, p := range picked {
			idx := indexOf(all, p)
			require.GreaterOrEqual(t, idx, 0, "sentence %q not from input", p)
			assert.Greater(t, idx, last, "order not preserved for n=%d", n)
			last = idx
		}
	}
}

func TestSummarizeLecturePicks(t *testing.T) {
	s := NewSummarizer()
	cases := []struct {
		n    int
		want string
	}{
		{1, "Go là một ngôn ngữ lập trình do Google phát triển."},
		{2, "Go là một ngôn ngữ lập trình do Google phát triển. " +
			"Goroutine giúp viết chương trình đồng thời rất dễ dàng."},
		{3, "Go là một ngôn ngữ lập trình do Google phát triển. " +
			"Goroutine giúp viết chương trình đồng thời rất dễ dàng. " +
			"Channel cho phép các goroutine trao đổi dữ liệu an toàn."},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Summarize(lecture, tc.n), "n=%d", tc.n)
	}
}

// Every cell of a non-empty sentence column is smoothed, terms the sentence
// lacks included. That favours the short sentence here; smoothing only the
// present terms would favour the long one.
func TestSummarizeSmoothsAbsentTerms(t *testing.T) {
	text := "Alpha beta gamma. " +
		"Delta delta delta epsilon epsilon epsilon zeta eta theta. " +
		"Kappa."
	assert.Equal(t, "Alpha beta gamma.", NewSummarizer().Summarize(text, 1))
}

func TestSummarizeDeterministic(t *testing.T) {
	s := NewSummarizer()
	first := s.Summarize(lecture, 3)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Summarize(lecture, 3))
	}
}

func TestSummarizeEdgeCases(t *testing.T) {
	s := NewSummarizer()
	assert.Equal(t, "", s.Summarize("", 3))
	assert.Equal(t, "", s.Summarize(" \n\t", 3))
	assert.Equal(t, "Một câu.", s.Summarize("Một câu.", 3))
	assert.Equal(t, "Câu một. Câu hai.", s.Summarize("Câu một.\n\nCâu hai.", 0))
}

func TestSummarizeAllStopWordsFallsBackToPosition(t *testing.T) {
	s := NewSummarizer()
	got := s.Summarize("và của. cho là. để trong.", 2)
	assert.Equal(t, "và của. cho là.", got)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
