package upstream_test

import (
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/upstream"
)

var _ = Describe("Errors", func() {
	It("wraps ErrNotConfigured in configuration errors", func() {
		err := upstream.NotConfigured("llm", "missing API key")
		Expect(upstream.IsNotConfigured(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("missing API key"))

		wrapped := fmt.Errorf("building client: %w", err)
		Expect(upstream.IsNotConfigured(wrapped)).To(BeTrue())
	})

	It("does not treat status errors as configuration errors", func() {
		err := upstream.NewStatusError("recall", 503, []byte("unavailable"))
		Expect(upstream.IsNotConfigured(err)).To(BeFalse())
		Expect(err.Error()).To(ContainSubstring("status 503"))
	})

	It("trims long status bodies", func() {
		err := upstream.NewStatusError("llm", 500, []byte(strings.Repeat("x", 2000)))
		Expect(err.Body).To(HaveLen(500))
	})

	It("unwraps content errors", func() {
		cause := errors.New("unexpected end of JSON input")
		err := &upstream.ContentError{Service: "llm", Op: "detect topic", Err: cause}

		Expect(errors.Is(err, cause)).To(BeTrue())

		var ce *upstream.ContentError
		Expect(errors.As(fmt.Errorf("topic check: %w", err), &ce)).To(BeTrue())
		Expect(ce.Op).To(Equal("detect topic"))
	})
})
