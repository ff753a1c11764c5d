package model

// Category is the kind of a memo. Stored as free text; the values below are the ones the UI offers.
type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategoryIdea     Category = "idea"
	CategoryOther    Category = "other"

	// CategoryAll is the filter sentinel meaning "no category filter".
	CategoryAll = "all"
)

// Categories lists the categories offered for new memos, in display order.
var Categories = []Category{CategoryPersonal, CategoryWork, CategoryStudy, CategoryIdea, CategoryOther}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Memo is the application-facing note.
type Memo struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// MemoRow is a memo as the store returns it.
type MemoRow struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// MemoForm carries the user-editable fields for create and update.
type MemoForm struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}
