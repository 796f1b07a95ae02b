package assistant

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ajharbinger/refibot/internal/loan"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a dollar amount with thousands separators, e.g. 30000 -> "30,000"
func FormatAmount(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

func formatPlain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LoanContext renders the loan facts given to the assistant as system context
func LoanContext(info loan.Info) string {
	var b strings.Builder
	b.WriteString("Current Loan Information:\n")
	b.WriteString("- Loan Amount: $" + FormatAmount(info.LoanAmount) + "\n")
	b.WriteString("- Interest Rate: " + formatPlain(info.InterestRate) + "%\n")
	b.WriteString("- Loan Term: " + formatPlain(info.LoanTerm) + " years\n")
	b.WriteString("- Current Lender: " + info.CurrentLender + "\n")
	b.WriteString("- Loan Type: " + info.LoanType)
	if payment, err := info.MonthlyPayment(); err == nil {
		b.WriteString("\n- Monthly Payment: $" + printer.Sprintf("%.2f", payment.InexactFloat64()))
	}
	return b.String()
}

// BuildMessages assembles the system context, prior turns and the new user message
func BuildMessages(info loan.Info, history []Message, userMessage string) []Message {
	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: LoanContext(info)})
	messages = append(messages, history...)
	return append(messages, Message{Role: "user", Content: userMessage})
}
