package writer

import "strings"

// FailureKind buckets generation failures into the categories users can act
// on. Anything unrecognised stays Unknown and surfaces the raw message.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureInsufficientCredit
	FailureRateLimited
	FailureBadCredential
	FailureModelNotFound
)

// Scope selects which classification rules apply. The flows diverge slightly:
// only the blocking keyword flow maps missing models to a friendly message,
// and the streaming trailer uses a narrower credential rule.
type Scope int

const (
	ScopeKeyword Scope = iota
	ScopeURL
	ScopeStream
)

var creditTerms = []string{"credit", "billing", "purchase credits", "too low", "upgrade", "plans"}

// Classify inspects an upstream error message and assigns a failure kind.
// Rules are ordered and the first match wins.
func Classify(err error, scope Scope) FailureKind {
	if err == nil {
		return FailureUnknown
	}
	msg := strings.ToLower(err.Error())

	for _, term := range creditTerms {
		if strings.Contains(msg, term) {
			return FailureInsufficientCredit
		}
	}
	if scope != ScopeStream && strings.Contains(msg, "balance") && strings.Contains(msg, "low") {
		return FailureInsufficientCredit
	}

	if strings.Contains(msg, "rate") && strings.Contains(msg, "limit") {
		return FailureRateLimited
	}

	if strings.Contains(msg, "invalid") && (strings.Contains(msg, "key") || strings.Contains(msg, "api")) {
		return FailureBadCredential
	}
	if scope != ScopeStream && strings.Contains(msg, "authentication") {
		return FailureBadCredential
	}

	if scope == ScopeKeyword && strings.Contains(msg, "not_found") && strings.Contains(msg, "model") {
		return FailureModelNotFound
	}

	return FailureUnknown
}

// FailureMessage renders the user-facing detail for a blocking generation
// failure.
func FailureMessage(err error, scope Scope) string {
	switch Classify(err, scope) {
	case FailureInsufficientCredit:
		return "Claude(Anthropic) API 크레딧이 부족합니다. https://console.anthropic.com/ → Plans & Billing 에서 크레딧을 충전해 주세요."
	case FailureRateLimited:
		return "Claude API 요청 한도를 초과했습니다. 잠시 후 다시 시도해 주세요."
	case FailureBadCredential:
		return "Claude API 키가 올바르지 않습니다. 키를 확인해 주세요."
	case FailureModelNotFound:
		return "설정된 Claude 모델을 찾을 수 없습니다. CLAUDE_MODEL 환경변수를 확인하거나, 최신 Anthropic 문서의 모델 목록을 참고해 주세요."
	default:
		return err.Error()
	}
}

// StreamTrailer renders the in-band error marker appended to an already
// started stream, where HTTP status codes can no longer change.
func StreamTrailer(err error) string {
	switch Classify(err, ScopeStream) {
	case FailureInsufficientCredit:
		return "\n\n[ERROR] Claude(Anthropic) API 크레딧이 부족합니다."
	case FailureRateLimited:
		return "\n\n[ERROR] Claude API 요청 한도를 초과했습니다."
	case FailureBadCredential:
		return "\n\n[ERROR] Claude API 키가 올바르지 않습니다."
	default:
		return "\n\n[ERROR] " + err.Error()
	}
}
