package query

import "fmt"

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "sprint": {
      "type": ["string", "null"]
    },
    "date": {
      "type": ["string", "null"],
      "pattern": "^\\d{4}-\\d{2}-\\d{2}$"
    },
    "activity": {
      "type": ["string", "null"]
    },
    "context": {
      "type": ["string", "null"]
    },
    "focus": {
      "type": ["string", "null"]
    }
  },
  "required": ["sprint", "date", "activity", "context"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Analyze the question below and extract ONLY the information EXPLICITLY mentioned in it.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- NEVER invent or infer information. Only report what is literally present in the question.
- If a piece of information is not explicitly mentioned, use null for that field.
- Do not guess dates, activities, or contexts.
- "sprint" is the sprint number only, as a string, if the question names one.
- "date" is an exact ISO date if the question names one.
- "activity" is an activity name if the question names one.
- "context" is a surrounding context if the question names one.
- "focus" is the main subject of the question, in a few words.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "What was decided about the API during sprint 3 planning?"
Output:
{
  "sprint": "3",
  "date": null,
  "activity": "planning",
  "context": null,
  "focus": "API decisions"
}

Example:
Input: "What happened on 2024-03-11?"
Output:
{
  "sprint": null,
  "date": "2024-03-11",
  "activity": null,
  "context": null,
  "focus": "events of the day"
}

Question: %s`

// buildExtractionPrompt creates the metadata extraction prompt for a query.
func buildExtractionPrompt(query string) string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema, query)
}

const answerPromptTemplate = `You are a precise and factual assistant. Use the information in the CONTEXT below to answer the QUESTION.
Each context excerpt carries important metadata such as the sprint, the date, and the activity.
Take that metadata into account in your answer and cite it.
If the information is not in the context, say so clearly.
Do not speculate and stay objective.

CONTEXT:
%s

QUESTION:
%s

FACTUAL ANSWER:`

// buildAnswerPrompt creates the answer synthesis prompt from retrieved context.
func buildAnswerPrompt(contextText, question string) string {
	return fmt.Sprintf(answerPromptTemplate, contextText, question)
}
