package sqlagent

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You are an agent that answers questions by querying a %s database.

Given a question, write one syntactically correct %s query, run it and stop.
Unless the question asks for a specific number of rows, limit the query to at most %d rows.
Order results by a relevant column so the most useful rows come first.
Select only the columns needed to answer the question, never SELECT *.

Tools:
- %s: list the tables you can query.
- %s: show the columns of comma-separated tables. Check columns before writing a query.
- %s: run a single read-only query and return its rows.

If a query fails, read the error, fix the query and try again.
Never write INSERT, UPDATE, DELETE, DROP or any other statement that changes data.

Tables: %s`

const noSQLReminder = "Your answer contained no SQL. Call " + ToolQuery +
	" with a single SELECT statement that answers the question."

func buildSystemPrompt(dialect string, maxRows int, tables []string) string {
	return fmt.Sprintf(systemPromptTemplate,
		dialect, dialect, maxRows,
		ToolListTables, ToolSchema, ToolQuery,
		strings.Join(tables, ", "),
	)
}
