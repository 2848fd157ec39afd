package strategy

import (
	"fmt"
	"strings"

	"github.com/zen-systems/solvegate/pkg/sandbox"
)

func taskBlock(sb *strings.Builder, task Task) {
	sb.WriteString("Question:\n")
	sb.WriteString(task.Question)
	sb.WriteString("\n")
	if plan := strings.TrimSpace(task.Plan); plan != "" {
		sb.WriteString("\nSuggested plan:\n")
		sb.WriteString(plan)
		sb.WriteString("\n")
	}
}

func cotPrompt(task Task) string {
	var sb strings.Builder
	sb.WriteString("Solve the question by reasoning step by step.\n\n")
	taskBlock(&sb, task)
	sb.WriteString("\nEnd with a line of the form \"Final Answer: <answer>\".\n")
	return sb.String()
}

func factCheckPrompt(question, draft string) string {
	var sb strings.Builder
	sb.WriteString("Review the draft answer below for factual and logical mistakes.\n")
	sb.WriteString("If it is correct, restate it. If it is wrong, correct it.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nDraft answer:\n---\n")
	sb.WriteString(draft)
	sb.WriteString("\n---\n\nEnd with a line of the form \"Final Answer: <answer>\".\n")
	return sb.String()
}

func languageName(lang sandbox.Language) string {
	switch lang {
	case sandbox.LangGo:
		return "Go"
	default:
		return "Lua"
	}
}

func palPrompt(task Task, lang sandbox.Language) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a short %s program that computes the answer to the question and prints only the answer.\n", languageName(lang)))
	sb.WriteString("Only math, string and table/slice helpers are available: no files, network or input.\n\n")
	taskBlock(&sb, task)
	sb.WriteString(fmt.Sprintf("\nReply with the program in a single ```%s fenced code block.\n", lang))
	return sb.String()
}

func reactPrompt(task Task, lang sandbox.Language) string {
	var sb strings.Builder
	sb.WriteString("Answer the question by alternating Thought, Action and Observation steps.\n\n")
	sb.WriteString("Each reply must contain a Thought followed by exactly one of:\n")
	sb.WriteString(fmt.Sprintf("Action: Code\n```%s\n<a %s program that prints a result>\n```\n", lang, languageName(lang)))
	sb.WriteString("Action: Calculate\nAction Input: <a single arithmetic expression>\n")
	sb.WriteString("Action: None\n")
	sb.WriteString("Final Answer: <the answer>\n\n")
	sb.WriteString("Stop after the Action; the Observation will be supplied to you.\n\n")
	taskBlock(&sb, task)
	return sb.String()
}

const (
	observationPrefix   = "Observation: "
	continueObservation = "No action taken. Continue reasoning."
	formatObservation   = "Invalid format. Reply with a Thought and then \"Action: Code\" with a fenced code block, \"Action: Calculate\" with an \"Action Input:\" line, \"Action: None\", or \"Final Answer: <answer>\"."
	summaryPrefix       = "Summary of the work so far:\n"
)
