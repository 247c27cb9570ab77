package extract

// SystemPrompt pins the model's role for the extraction call.
const SystemPrompt = "You are an expert at transcribing text from images of printed order documents."

// BuildOrderPrompt returns the extraction contract for goods-order forms.
// The contract is the main correctness lever of the pipeline: it fixes the
// output shape, forbids prose and fencing, and states the category rule.
// The repair layer exists because the contract is not always honored.
func BuildOrderPrompt() string {
	return `Analyze the provided order form image and extract the order data into the following JSON structure.

IMPORTANT INSTRUCTIONS:
- Extract EVERY line item on the form. Do not skip, summarize, or omit any items.
- Normalize the order date to YYYY-MM-DD format. Strip times and annotations.
- All numeric fields must be unquoted JSON numbers, never strings.
- Amounts are whole currency units with no decimal places.
- Determine "category" from the order number prefix: "#" means "hololive", "SN" means "nijisanji", "sxfn" means "sixfonia", anything else means "other".

Return ONLY valid JSON with no markdown formatting, no code fences, no explanation.

The JSON object must follow this schema:
{
  "orderHeader": {
    "orderId": "",
    "orderDate": "",
    "subtotal": 0,
    "shippingFee": 0,
    "totalAmount": 0,
    "category": ""
  },
  "orderDetails": [
    {
      "itemId": "",
      "productName": "",
      "unitPrice": 0,
      "quantity": 0,
      "subtotal": 0
    }
  ]
}

If a field is not present on the form, use an empty string for text and 0 for numbers.`
}
