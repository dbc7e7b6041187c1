package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/mmeshcher/invoice-system/internal/model"
)

var previewTemplate = template.Must(template.New("preview").Parse(`<article class="invoice-preview">
  <header><h1>INVOICE</h1><p class="invoice-number">#{{.Number}}</p></header>
  <section class="parties">
    <div class="from">
      <h2>From:</h2>
      <p class="name">{{.From.Name}}</p>
      {{- range .From.Lines}}
      <p>{{.}}</p>
      {{- end}}
    </div>
    <div class="to">
      <h2>To:</h2>
      <p class="name">{{.To.Name}}</p>
      {{- range .To.Lines}}
      <p>{{.}}</p>
      {{- end}}
    </div>
  </section>
  <section class="dates">
    <p><span>Date:</span> {{.Date}}</p>
    <p><span>Due Date:</span> {{.DueDate}}</p>
  </section>
  <table class="items">
    <thead><tr><th>Description</th><th>Qty</th><th>Price</th><th>Total</th></tr></thead>
    <tbody>
    {{- range .Rows}}
      <tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Amount}}</td></tr>
    {{- end}}
    </tbody>
  </table>
  <dl class="totals">
    <dt>Subtotal:</dt><dd class="subtotal">{{.Subtotal}}</dd>
    <dt>Tax ({{.TaxRate}}%):</dt><dd class="tax">{{.TaxAmount}}</dd>
    <dt>Discount:</dt><dd class="discount">-{{.Discount}}</dd>
    <dt>Total:</dt><dd class="total">{{.Currency}} {{.Total}}</dd>
  </dl>
</article>
`))

// Preview возвращает HTML-фрагмент с предпросмотром счёта.
func Preview(inv model.Invoice) (string, error) {
	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, newDocument(inv)); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}
