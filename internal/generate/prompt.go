package generate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/document"
)

const ImageTextPrompt = "Extract all readable text from this image. " +
	"Return only extracted text with line breaks where natural."

const DescribeImagePrompt = "Describe the important visual content in this image in concise factual text " +
	"so it can be used for question answering."

// Summary section headings, in order.
var SummaryHeadings = []string{"Main Topic", "Key Points", "Important Details"}

// BuildAnswerPrompt renders the answering prompt. Snippets are labelled with
// their page so the model can weigh them, but the rules forbid citing pages in
// the answer. The context block is cut at maxContextChars. It reports false
// when no usable snippet remains.
func BuildAnswerPrompt(req AnswerRequest, maxContextChars int) (string, bool) {
	var context strings.Builder
	used := 0
	for _, src := range req.Sources {
		snippet := strings.TrimSpace(src.Snippet)
		if snippet == "" {
			continue
		}
		line := fmt.Sprintf("[Page %d] %s", src.Page, snippet)
		if maxContextChars > 0 {
			remaining := maxContextChars - used
			if remaining <= 0 {
				break
			}
			line = document.Truncate(line, remaining)
		}
		if context.Len() > 0 {
			context.WriteString("\n")
		}
		context.WriteString(line)
		used += utf8.RuneCountInString(line)
	}
	if context.Len() == 0 {
		return "", false
	}

	label := req.DocumentLabel
	if label == "" {
		label = "the selected document"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are answering questions from %s.\n", label))
	sb.WriteString("Rules:\n")
	sb.WriteString("1) Use only the provided context.\n")
	sb.WriteString("2) Summarize clearly in plain language.\n")
	sb.WriteString("3) Do not include page numbers or citations in the answer text.\n")
	sb.WriteString("4) If context is insufficient, say that briefly and state what is missing.\n\n")
	sb.WriteString(fmt.Sprintf("Question: %s\n\n", req.Question))
	sb.WriteString("Context:\n")
	sb.WriteString(context.String())
	return sb.String(), true
}

// BuildSummaryPrompt renders the summary prompt over the ordered chunks.
func BuildSummaryPrompt(req SummaryRequest) (string, bool) {
	var text []string
	for _, chunk := range req.Chunks {
		if c := strings.TrimSpace(chunk); c != "" {
			text = append(text, c)
		}
	}
	if len(text) == 0 {
		return "", false
	}

	label := req.DocumentLabel
	if label == "" {
		label = "the document"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Summarize %s using only the text below.\n", label))
	sb.WriteString("Respond in Markdown with exactly these three sections, in this order:\n")
	for _, h := range SummaryHeadings {
		sb.WriteString("## " + h + "\n")
	}
	sb.WriteString("Under Main Topic write one sentence. Under Key Points and Important Details write short bullet points.\n")
	sb.WriteString("\n---\n")
	sb.WriteString(strings.Join(text, "\n\n"))
	return sb.String(), true
}
