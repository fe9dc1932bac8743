package inference

import (
	"fmt"
	"strings"
)

func tangentPrompt(agenda, recent string) Prompt {
	return Prompt{
		System: "You moderate a live meeting and keep the conversation aligned with its agenda.",
		User: fmt.Sprintf(`Agenda:
%s

Recent transcript (oldest first):
%s

Reply with a single JSON object:
{
  "on_topic": true or false,
  "confidence": number between 0 and 1,
  "reason": "short reason",
  "message": "one short, friendly chat nudge when off topic, otherwise empty"
}
Guidelines:
- Loosely related discussion still counts as on topic.
- Only call it off topic when the conversation is clearly unrelated to the agenda.
- The message must be at most %d characters and must not single anyone out.`,
			strings.TrimSpace(agenda), recent, MaxTangentMessageLen),
	}
}

func topicPrompt(meetingContext, recent string) Prompt {
	return Prompt{
		System: "You label what a meeting is currently discussing for a short chat check-in.",
		User: fmt.Sprintf(`Meeting context, possibly empty:
%s

Recent transcript (oldest first):
%s

Reply with a single JSON object:
{
  "topic": "short topic label",
  "confidence": number between 0 and 1,
  "reason": "brief reason"
}
Guidelines:
- The topic is a label of at most %d characters, not a paragraph.
- Lower the confidence when the transcript is thin or unclear.`,
			strings.TrimSpace(meetingContext), recent, MaxTopicLen),
	}
}

func answerPrompt(agenda, topic, question, excerpts string) Prompt {
	return Prompt{
		System: "You are a concise meeting assistant. Answer only from the transcript excerpts you are given. " +
			"When the excerpts do not contain the answer, say you have not heard it yet.",
		User: fmt.Sprintf(`Meeting agenda, possibly empty:
%s

Current topic, possibly empty:
%s

Question:
%s

Transcript excerpts (oldest first):
%s

Reply with a single JSON object:
{
  "answer": "at most two sentences",
  "confidence": number between 0 and 1
}
Guidelines:
- Do not invent details that are not in the excerpts.
- Keep the tone constructive and do not single anyone out.`,
			strings.TrimSpace(agenda), strings.TrimSpace(topic), strings.TrimSpace(question), excerpts),
	}
}

func chunkPrompt(chunk string, n, total int) Prompt {
	return Prompt{
		System: "You summarize meeting transcripts, pulling out key points, decisions and action items.",
		User: fmt.Sprintf(`This is part %d of %d of a meeting transcript.

Transcript:
%s

Reply with a single JSON object:
{
  "key_points": ["..."],
  "action_items": ["..."],
  "decisions": ["..."],
  "discussion_summary": "what was discussed"
}`, n, total, chunk),
	}
}

func combinePrompt(partials []string, meetingDate string) Prompt {
	if meetingDate == "" {
		meetingDate = "Not specified"
	}
	return Prompt{
		System: "You write well structured markdown meeting summaries from partial summaries.",
		User: fmt.Sprintf(`Merge these partial meeting summaries into one final summary:

%s

Meeting date: %s

Reply with a single JSON object:
{
  "markdown": "the full markdown summary",
  "confidence": number between 0 and 1
}

Use this markdown layout:
# Meeting Summary
**Date:** <date>

## Key Points
- ...

## Action Items
- [ ] ...

## Decisions Made
- ...

## Discussion Topics
A short narrative of the discussion.

Merge duplicate items across parts and keep it concise.`, strings.Join(partials, "\n---\n"), meetingDate),
	}
}
