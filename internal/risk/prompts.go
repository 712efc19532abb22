package risk

// assessPrompt is the classification instruction. The rubric is stated
// verbatim so repeated calls stay consistent, and the model is restricted
// to the supplied feature record to keep it from inventing factors.
// %s is the JSON-encoded feature record, trigger sets included.
const assessPrompt = `You are an assistant to a head of sales. Assess the RISK on this deal and suggest one short next step for the manager.
Base your answer ONLY on the supplied features and the active_triggers list. Do NOT invent additional factors.

Scoring rules (for consistency):
- last_contact_days > 14 -> high risk; 7-14 -> medium.
- stage_age_days well above typical (>14 high, 7-14 medium) -> raise risk.
- Negative signals (refusal, "too expensive", "chose someone else", "not interested", "let's pause", "later") -> raise risk.
- Positive signals ("waiting for the proposal", "ready to finalize") -> lower slightly.
- A large deal value amplifies risk that is already present, but never creates red on its own.
- semantic_triggers may contain: "postpone", "price_objection", "chose_other", "refusal".
  * "postpone" (deferral, "in a week", "later") => the level must NOT be green (yellow at minimum).
  * "price_objection" or "chose_other" or "refusal" => raise risk.
- Return a final score from 0 to 2 in roughly 0.1 steps: 0..0.89=green, 0.9..1.99=yellow, >=2.0=red.

Return STRICTLY a single JSON object with no surrounding text:
{
  "score": <float 0..2>,
  "level": "green"|"yellow"|"red",
  "reason": "<brief, 1-2 causes>",
  "action": "<the manager's next step, one short sentence>"
}

Features:
%s`
