package slips

import "html/template"

// slipTemplate is the standard packing-slip layout. Addresses are stored
// pre-rendered with <br> separators, so they are injected as HTML.
var slipTemplate = template.Must(template.New("slip").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; margin: 2em; }
.header { display: flex; justify-content: space-between; }
.order-title { text-align: right; }
.order-title .order-number { font-size: 1.6em; font-weight: bold; }
.customer-addresses { display: flex; justify-content: space-between; margin-top: 2em; }
.subtitle { font-weight: bold; text-transform: uppercase; font-size: 0.85em; }
.route-banner { margin-top: 1.5em; font-size: 1.1em; }
.line-item { display: flex; justify-content: space-between; border-bottom: 1px solid #eee; padding: 0.4em 0; }
.notes { margin-top: 2em; }
.page-break { page-break-after: always; }
</style>
</head>
<body>
<div class="wrapper page-break">
  <div class="header">
    <div class="shop-title">{{.ShopName}}</div>
    <div class="order-title">
      <p class="order-number">Order #{{.OrderID}}</p>
      <p>Date: {{.DeliveryDate}}</p>
    </div>
  </div>
  <div class="customer-addresses">
    <div class="shipping-address">
      <p class="subtitle">Delivery to</p>
      <p>{{.ShippingAddress}}</p>
    </div>
    <div class="billing-address">
      <p class="subtitle">Bill to</p>
      <p>{{.BillingAddress}}</p>
    </div>
  </div>
  {{if .Route}}
  <div class="route-banner">{{.Bike}} &mdash; Route {{.Route}}, stop {{.Stop}}</div>
  {{end}}
  <hr>
  <div class="order-items">
    <p class="subtitle">Items</p>
    {{range .Items}}
    <div class="line-item">
      {{if .Strong}}<span><strong>{{.Description}}</strong></span><span><strong>{{.Quantity}}</strong></span>
      {{else}}<span>{{.Description}}</span><span>{{.Quantity}}</span>{{end}}
    </div>
    {{end}}
  </div>
  {{if .Notes}}
  <div class="notes">
    <p class="subtitle">Delivery notes</p>
    <p>{{.Notes}}</p>
  </div>
  {{end}}
</div>
</body>
</html>
`))
