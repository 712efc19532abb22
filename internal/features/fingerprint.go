package features

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint returns a stable hex digest over the complete feature record,
// trigger sets included. Fields are serialized by sorted key so the digest
// does not depend on declaration order.
func (f DealFeatures) Fingerprint() string {
	canonical := map[string]any{
		"deal_id":           f.DealID,
		"client_name":       f.ClientName,
		"stage":             f.Stage,
		"last_contact_days": f.LastContactDays,
		"stage_age_days":    f.StageAgeDays,
		"deal_value":        f.DealValue,
		"last_message_text": f.LastMessageText,
		"active_triggers":   f.ActiveTriggers,
		"semantic_triggers": f.SemanticTriggers,
	}
	// Marshaling a map sorts keys; errors are impossible for these types.
	b, _ := json.Marshal(canonical)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
