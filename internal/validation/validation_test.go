package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kanushi/kanushi-api/internal/model"
)

// --- ValidateFollowRequest のテスト ---

func TestValidateFollowRequest_ValidFamilyFollow(t *testing.T) {
	req := FollowRequest{
		FolloweeID: json.RawMessage(`42`),
		FollowType: "family",
		Reason:     "いとこです",
	}

	v, apiErr := ValidateFollowRequest(1, req)
	if apiErr != nil {
		t.Fatalf("unexpected error: %v", apiErr)
	}
	if v.FolloweeID != 42 {
		t.Errorf("FolloweeID = %d, want 42", v.FolloweeID)
	}
	if v.Type != model.FollowTypeFamily {
		t.Errorf("Type = %q, want %q", v.Type, model.FollowTypeFamily)
	}
	if v.Reason != "いとこです" {
		t.Errorf("Reason = %q, want %q", v.Reason, "いとこです")
	}
}

func TestValidateFollowRequest_ValidWatchFollowDropsReason(t *testing.T) {
	req := FollowRequest{
		FolloweeID: json.RawMessage(`7`),
		FollowType: "watch",
		Reason:     "理由は保持されない",
	}

	v, apiErr := ValidateFollowRequest(1, req)
	if apiErr != nil {
		t.Fatalf("unexpected error: %v", apiErr)
	}
	if v.Reason != "" {
		t.Errorf("watch follow Reason = %q, want empty", v.Reason)
	}
}

func TestValidateFollowRequest_InvalidFolloweeID(t *testing.T) {
	tests := []struct {
		name       string
		followeeID json.RawMessage
	}{
		{"missing", nil},
		{"string", json.RawMessage(`"abc"`)},
		{"quoted number", json.RawMessage(`"123"`)},
		{"float", json.RawMessage(`1.5`)},
		{"null", json.RawMessage(`null`)},
		{"boolean", json.RawMessage(`true`)},
		{"zero", json.RawMessage(`0`)},
		{"negative", json.RawMessage(`-3`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := FollowRequest{FolloweeID: tt.followeeID, FollowType: "watch"}
			_, apiErr := ValidateFollowRequest(1, req)
			if apiErr == nil {
				t.Fatal("expected error, got nil")
			}
			if apiErr.Code != model.ErrCodeInvalidFolloweeID {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidFolloweeID)
			}
		})
	}
}

func TestValidateFollowRequest_InvalidFollowType(t *testing.T) {
	for _, followType := range []string{"", "friend", "FAMILY", "both"} {
		req := FollowRequest{FolloweeID: json.RawMessage(`2`), FollowType: followType}
		_, apiErr := ValidateFollowRequest(1, req)
		if apiErr == nil {
			t.Fatalf("followType=%q: expected error, got nil", followType)
		}
		if apiErr.Code != model.ErrCodeInvalidFollowType {
			t.Errorf("followType=%q: Code = %q, want %q", followType, apiErr.Code, model.ErrCodeInvalidFollowType)
		}
	}
}

func TestValidateFollowRequest_FamilyRequiresReason(t *testing.T) {
	for _, reason := range []string{"", "   ", "\t\n"} {
		req := FollowRequest{
			FolloweeID: json.RawMessage(`2`),
			FollowType: "family",
			Reason:     reason,
		}
		_, apiErr := ValidateFollowRequest(1, req)
		if apiErr == nil {
			t.Fatalf("reason=%q: expected error, got nil", reason)
		}
		if apiErr.Code != model.ErrCodeMissingReason {
			t.Errorf("reason=%q: Code = %q, want %q", reason, apiErr.Code, model.ErrCodeMissingReason)
		}
	}
}

func TestValidateFollowRequest_SelfFollowForbidden(t *testing.T) {
	req := FollowRequest{FolloweeID: json.RawMessage(`5`), FollowType: "watch"}
	_, apiErr := ValidateFollowRequest(5, req)
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeSelfFollowForbidden {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeSelfFollowForbidden)
	}
}

// --- ValidateUnfollowID のテスト ---

func TestValidateUnfollowID_Valid(t *testing.T) {
	id, apiErr := ValidateUnfollowID("123")
	if apiErr != nil {
		t.Fatalf("unexpected error: %v", apiErr)
	}
	if id != 123 {
		t.Errorf("id = %d, want 123", id)
	}
}

func TestValidateUnfollowID_Invalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.5", "0", "-1", "9999999999999999999999"} {
		_, apiErr := ValidateUnfollowID(raw)
		if apiErr == nil {
			t.Fatalf("raw=%q: expected error, got nil", raw)
		}
		if apiErr.Code != model.ErrCodeInvalidFollowIDFormat {
			t.Errorf("raw=%q: Code = %q, want %q", raw, apiErr.Code, model.ErrCodeInvalidFollowIDFormat)
		}
	}
}

// --- ValidatePostRequest のテスト ---

type stubURLValidator struct {
	err error
}

func (s *stubURLValidator) ValidateURL(rawURL string) error { return s.err }

func TestValidatePostRequest_ValidText(t *testing.T) {
	req := PostRequest{ContentType: "text", TextContent: "こんにちは", MediaURL: "https://example.com/x.png"}

	v, apiErr := ValidatePostRequest(req, &stubURLValidator{})
	if apiErr != nil {
		t.Fatalf("unexpected error: %v", apiErr)
	}
	if v.ContentType != model.ContentTypeText {
		t.Errorf("ContentType = %q, want text", v.ContentType)
	}
	// テキスト投稿ではメディアURLは破棄される
	if v.MediaURL != "" {
		t.Errorf("MediaURL = %q, want empty", v.MediaURL)
	}
}

func TestValidatePostRequest_InvalidContentType(t *testing.T) {
	req := PostRequest{ContentType: "gif"}
	_, apiErr := ValidatePostRequest(req, &stubURLValidator{})
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeInvalidContentType {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidContentType)
	}
}

func TestValidatePostRequest_TextRequiresContent(t *testing.T) {
	req := PostRequest{ContentType: "text", TextContent: "   "}
	_, apiErr := ValidatePostRequest(req, &stubURLValidator{})
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeMissingTextContent {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeMissingTextContent)
	}
}

func TestValidatePostRequest_MediaRequiresURL(t *testing.T) {
	req := PostRequest{ContentType: "image"}
	_, apiErr := ValidatePostRequest(req, &stubURLValidator{})
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeInvalidMediaURL {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidMediaURL)
	}
}

func TestValidatePostRequest_MediaURLRejectedBySSRFGuard(t *testing.T) {
	req := PostRequest{ContentType: "image", MediaURL: "http://169.254.169.254/latest"}
	_, apiErr := ValidatePostRequest(req, &stubURLValidator{err: errors.New("blocked IP address")})
	if apiErr == nil {
		t.Fatal("expected error, got nil")
	}
	if apiErr.Code != model.ErrCodeInvalidMediaURL {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidMediaURL)
	}
}
