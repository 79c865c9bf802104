package answer

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/bookrag/internal/rag"
)

const (
	contextHeader = "Context from the book:\n"
	questionLabel = "Question: "
)

// Book identifies the novel the prompt is about.
type Book struct {
	Title  string
	Author string
}

// DefaultBook is the novel shipped with the default configuration.
func DefaultBook() Book {
	return Book{
		Title:  "The War of the Worlds",
		Author: "H.G. Wells",
	}
}

// AssemblePrompt renders the book-expert prompt. Chunk texts are included in
// retrieval order, separated by blank lines.
func AssemblePrompt(book Book, question string, chunks []rag.ContextChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are an expert on the book %q by %s.\n", book.Title, book.Author))
	b.WriteString("Use the following pieces of context from the book to answer the question at the end.\n")
	b.WriteString("If you don't know the answer based on the context, just say that you don't know, don't try to make up an answer.\n")
	b.WriteString("Always answer in English and provide detailed, accurate responses based on the book's content.\n\n")

	b.WriteString(contextHeader)
	b.WriteString(strings.Join(texts, "\n\n"))
	b.WriteString("\n\n")

	b.WriteString(questionLabel + question + "\n\n")
	b.WriteString("Detailed Answer:")

	return b.String()
}
