package coach

import (
	"fmt"
	"strings"
)

const classifierSystemPrompt = "You are a helpful assistant."

// explainerSystemPrompt fixes the persona and the cause-only boundary.
var explainerSystemPrompt = strings.TrimSpace(`
You are a helpful assistant helping students understand programming error messages.

You will be provided with the assignment instructions in the <assignment> tag,
all the student code files in the <code> tag and a programming error message in the <error_message> tag.

- Carefully review the <assignment> and <code>, if provided, to understand the context of the error
- Explain what is causing the error only.
- Do not provide possible fixes and solutions.
- If relevant, mention any common misconceptions that may be contributing to the student's error
- When referring to code in your explanation, use markdown syntax - wrap inline code with ` + "`" + ` and
multiline code with ` + "```")

// buildValidationPrompt asks for a fail-closed Yes/No judgment in a JSON answer field.
func buildValidationPrompt(candidate string) string {
	var b strings.Builder
	b.WriteString("<Instructions>\n\n")
	b.WriteString("Please determine whether the following text appears to be a programming error message or not:\n\n")
	fmt.Fprintf(&b, "<text>\n%s\n</text>\n\n", candidate)
	b.WriteString("Output your final Yes or No answer in JSON format with the key 'answer'\n\n")
	b.WriteString(`Focus on looking for key indicators that suggest the text is an error message, such as:

- Words like "error", "exception", "stack trace", "traceback", etc.
- Line numbers, file names, or function/method names
- Language that sounds like it is reporting a problem or issue
- Language that sounds like it is providing feedback
- Technical jargon related to coding/programming

If you don't see clear signs that it is an error message, assume it is not.
Only answer "Yes" if you are quite confident it is an error message.
If it is not a traditional error message, only answer "Yes" if it sounds like it is providing feedback as part of an automated grading system.

</Instructions>`)
	return b.String()
}

// buildExplanationUserPrompt lays out the error, assignment and code in tagged sections.
func buildExplanationUserPrompt(errorText, assignment, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the error message:\n\n<error_message>\n%s\n</error_message>\n\n", errorText)
	fmt.Fprintf(&b, "Here is the description of the programming assignment the student is working on:\n\n<assignment>\n%s\n</assignment>\n\n", assignment)
	b.WriteString(`Note: Here is a list of items that are not part of the assignment instructions:
1. Anything in html <style> tags.
2. Anything in html <script> tags.
3. Anything that resembles autograder feedback about passing or failing tests, i.e. check passed, total passed, total failed, etc.

If any of the above are present in the <assignment>, ignore them as if they're not provided to you

`)
	fmt.Fprintf(&b, "Here are the student's code files:\n<code>\n%s\n</code>\n\n", code)
	b.WriteString(`If <assignment> and <code> are empty, assume that they're not available.

Phrase your explanation directly addressing the student as 'you'.
After writing your explanation in 2-3 sentences, double check that it does not suggest any fixes or solutions.
The explanation should only describe the cause of the error.`)
	return b.String()
}
