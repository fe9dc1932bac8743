package utils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/huddle/pkg/utils"
)

var _ = Describe("UserAgent", func() {
	It("carries the build version", func() {
		Expect(utils.UserAgent()).To(Equal("huddle/" + utils.Version))
	})
})
