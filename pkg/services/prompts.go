package services

import "fmt"

const (
	// TopK is the number of most relevant documents retrieved per RAG query.
	TopK = 5

	// DocumentSeparator joins retrieved document texts into one context block.
	DocumentSeparator = "\n\n---\n\n"
)

// chatSystemPrompt steers the plain chat endpoint.
const chatSystemPrompt = "You are a helpful AI assistant. Answer clearly and concisely, " +
	"in the language the user writes in."

const ragPromptTemplate = `You are a helpful AI assistant answering questions using the provided context.

Context:
%s

Answer the user's question based on the context above. If the context does not contain enough information to answer, say so honestly instead of guessing.`

const ragNoContextNotice = "No relevant documents were found for this question. " +
	"Tell the user that nothing in the knowledge base matches their question."

// ragSystemPrompt embeds the assembled document context into the RAG system
// instruction. An empty context gets an explicit no-context notice so the
// model does not hallucinate sources.
func ragSystemPrompt(context string) string {
	if context == "" {
		context = ragNoContextNotice
	}
	return fmt.Sprintf(ragPromptTemplate, context)
}
