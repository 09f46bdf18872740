package service

// Prompt templates. Placeholders are filled with strings.ReplaceAll.

const answerPrompt = `You are a professional AI assistant. Answer the user's question using only the content provided below. Use Markdown formatting (for example **bold**, *italics* and lists) to keep the answer clear and easy to read. If the content does not contain the information needed to answer, say "I could not find the information to answer this question in the documents."

<context>
{context}
</context>

Question: {input}`

const chunkSummaryPrompt = `Summarize the following passage concisely, keeping only the most important points.
--- ORIGINAL TEXT ---
{document_text}
---
Concise summary:`

const reduceSummaryPrompt = `Based on the collection of partial summaries below, write a detailed, coherent and concise overall summary that highlights the main points and key conclusions. Format the result in Markdown for readability.

--- PARTIAL SUMMARIES ---
{document_text}
---

Your combined summary:`

const quizPrompt = `You are an education expert. Based on the following content, create {num_questions} multiple-choice questions at {difficulty} difficulty.
REQUIREMENTS: Respond with a valid JSON array. Each object in the array must have the keys: "question", "options" (an array of 4 strings), and "answer" (a string matching one of the options).
<content>{content}</content>
Your JSON array:`
