// Package books holds the static canon tables that decide Old Testament vs
// New Testament membership for book codes used throughout the wizard.
package books

// Testament identifies which canon division a book belongs to.
type Testament int

const (
	TestamentUnknown Testament = iota
	TestamentOld
	TestamentNew
)

// String returns the display name of a testament.
func (t Testament) String() string {
	switch t {
	case TestamentOld:
		return "Old Testament"
	case TestamentNew:
		return "New Testament"
	default:
		return "Unknown"
	}
}

// Book holds metadata for a single book of the Bible.
type Book struct {
	Code string // USFM-style book code, e.g. "gen", "mat"
	Name string // English display name
}

// oldTestament contains the 39 protocanonical OT books in canonical order.
var oldTestament = []Book{
	{"gen", "Genesis"},
	{"exo", "Exodus"},
	{"lev", "Leviticus"},
	{"num", "Numbers"},
	{"deu", "Deuteronomy"},
	{"jos", "Joshua"},
	{"jdg", "Judges"},
	{"rut", "Ruth"},
	{"1sa", "1 Samuel"},
	{"2sa", "2 Samuel"},
	{"1ki", "1 Kings"},
	{"2ki", "2 Kings"},
	{"1ch", "1 Chronicles"},
	{"2ch", "2 Chronicles"},
	{"ezr", "Ezra"},
	{"neh", "Nehemiah"},
	{"est", "Esther"},
	{"job", "Job"},
	{"psa", "Psalms"},
	{"pro", "Proverbs"},
	{"ecc", "Ecclesiastes"},
	{"sng", "Song of Solomon"},
	{"isa", "Isaiah"},
	{"jer", "Jeremiah"},
	{"lam", "Lamentations"},
	{"ezk", "Ezekiel"},
	{"dan", "Daniel"},
	{"hos", "Hosea"},
	{"jol", "Joel"},
	{"amo", "Amos"},
	{"oba", "Obadiah"},
	{"jon", "Jonah"},
	{"mic", "Micah"},
	{"nam", "Nahum"},
	{"hab", "Habakkuk"},
	{"zep", "Zephaniah"},
	{"hag", "Haggai"},
	{"zec", "Zechariah"},
	{"mal", "Malachi"},
}

// newTestament contains the 27 NT books in canonical order.
var newTestament = []Book{
	{"mat", "Matthew"},
	{"mrk", "Mark"},
	{"luk", "Luke"},
	{"jhn", "John"},
	{"act", "Acts"},
	{"rom", "Romans"},
	{"1co", "1 Corinthians"},
	{"2co", "2 Corinthians"},
	{"gal", "Galatians"},
	{"eph", "Ephesians"},
	{"php", "Philippians"},
	{"col", "Colossians"},
	{"1th", "1 Thessalonians"},
	{"2th", "2 Thessalonians"},
	{"1ti", "1 Timothy"},
	{"2ti", "2 Timothy"},
	{"tit", "Titus"},
	{"phm", "Philemon"},
	{"heb", "Hebrews"},
	{"jas", "James"},
	{"1pe", "1 Peter"},
	{"2pe", "2 Peter"},
	{"1jn", "1 John"},
	{"2jn", "2 John"},
	{"3jn", "3 John"},
	{"jud", "Jude"},
	{"rev", "Revelation"},
}

// byCode maps a book code to its Book metadata and testament.
var byCode = func() map[string]struct {
	Book      Book
	Testament Testament
} {
	m := make(map[string]struct {
		Book      Book
		Testament Testament
	}, len(oldTestament)+len(newTestament))
	for _, b := range oldTestament {
		m[b.Code] = struct {
			Book      Book
			Testament Testament
		}{b, TestamentOld}
	}
	for _, b := range newTestament {
		m[b.Code] = struct {
			Book      Book
			Testament Testament
		}{b, TestamentNew}
	}
	return m
}()

// Classify returns the book and its testament for a code.
// Returns ok=false for codes outside the canon tables.
func Classify(code string) (Book, Testament, bool) {
	entry, ok := byCode[code]
	if !ok {
		return Book{}, TestamentUnknown, false
	}
	return entry.Book, entry.Testament, true
}

// OldTestament returns the OT books in canonical order.
// The returned slice is a copy and safe to mutate.
func OldTestament() []Book {
	out := make([]Book, len(oldTestament))
	copy(out, oldTestament)
	return out
}

// NewTestament returns the NT books in canonical order.
// The returned slice is a copy and safe to mutate.
func NewTestament() []Book {
	out := make([]Book, len(newTestament))
	copy(out, newTestament)
	return out
}

// Total returns the number of canonical books across both testaments.
func Total() int {
	return len(oldTestament) + len(newTestament)
}
