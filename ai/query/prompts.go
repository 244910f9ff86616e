package query

import (
	"fmt"
	"strings"
)

// relationalSchema describes the relational store to the model. It is fixed
// text; the live schema is only read by the SQL agent.
const relationalSchema = `- transactions table: client_name, transaction_type, stock_symbol, quantity, price_per_share, total_amount, transaction_date, status, relationship_manager
- portfolio_holdings table: client_name, stock_symbol, quantity, average_price, current_value
- relationship_managers table: name, email, total_clients, total_portfolio_value, performance_rating`

const answerPromptTemplate = `You are a wealth portfolio management assistant. Answer the query below using the context provided.

Client profiles (document store):
%s

Relational database schema:
%s

Query: %s

Give a complete answer. If the answer depends on specific transaction records, say that a SQL query against the tables above would be needed.`

// BuildPrompt assembles the single prompt sent to the language model.
func BuildPrompt(contextBlock, query string) string {
	return fmt.Sprintf(answerPromptTemplate, strings.TrimRight(contextBlock, "\n"), relationalSchema, query)
}

// apologyNarrative is returned in place of a model answer when the call fails.
func apologyNarrative(cause error) string {
	return fmt.Sprintf("I encountered an error processing your query: %v. Please try rephrasing your question.", cause)
}
