package dcache_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DCache Suite")
}
