package pipeline

// Prompt text is deliberately kept in one place so wording changes
// never touch pipeline logic.

const analysisPrompt = `You are a quality analyst for a travel agency call center.
You receive the full transcript of a recorded phone call between an agent and a customer.
Return ONLY a JSON object with the following fields:
  "summary": a short summary of the call,
  "destination": the travel destination discussed, or "" if none,
  "exchange_rate_resistance": "YES" or "NO" - did the customer push back on exchange rates,
  "exchange_rate_resistance_details": what was said about exchange rates,
  "competitors_mentioned": "YES" or "NO" - were competing agencies or sites mentioned,
  "competitor_names": the competitors named,
  "payment_terms_resistance": "YES" or "NO" - did the customer push back on payment terms,
  "payment_terms_resistance_details": what was said about payment terms,
  "cancellation_policy_resistance": "YES" or "NO" - did the customer push back on the cancellation policy,
  "cancellation_policy_resistance_details": what was said about the cancellation policy,
  "agent_advised_independent_booking": "YES" or "NO" - did the agent suggest the customer book on their own,
  "agent_advised_independent_booking_details": what the agent suggested,
  "service_score": { "expected_satisfaction": integer 1-10 }
Do not add any text outside the JSON object.`

const messageAnalysisPrompt = `You are a quality analyst for a travel agency call center.
You receive a summary of a WhatsApp conversation between an agent and a customer.
Return ONLY a JSON object with the fields:
  "summary", "exchange_rate_resistance", "exchange_rate_resistance_details",
  "competitors_mentioned", "competitor_names",
  "payment_terms_resistance", "payment_terms_resistance_details",
  "cancellation_policy_resistance", "cancellation_policy_resistance_details",
  "agent_advised_independent_booking", "agent_advised_independent_booking_details",
  "service_score": { "expected_satisfaction": integer 1-10 }
Values for the YES/NO fields must be exactly "YES" or "NO".
Do not add any text outside the JSON object.`

const threadSummaryPrompt = `Summarize the following customer service messages into a short paragraph.
Keep names, destinations, dates and amounts. If an earlier summary is provided, merge it in.`
