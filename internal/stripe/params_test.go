package stripe_test

import (
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/checkout-payments/internal/stripe"
)

var _ = Describe("Params", func() {
	It("encodes fields in insertion order", func() {
		params := stripe.NewParams().
			Add("amount", "4999").
			Add("currency", "usd").
			Add("capture_method", "manual")

		Expect(params.Encode()).To(Equal("amount=4999&currency=usd&capture_method=manual"))
	})

	It("escapes bracket notation keys so they survive form decoding", func() {
		params := stripe.NewParams().Add("automatic_payment_methods[enabled]", "true")

		encoded := params.Encode()
		Expect(encoded).ToNot(ContainSubstring("["))

		decoded, err := url.ParseQuery(encoded)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Get("automatic_payment_methods[enabled]")).To(Equal("true"))
	})

	It("escapes values", func() {
		params := stripe.NewParams().Add("description", "Order #42 & more")

		decoded, err := url.ParseQuery(params.Encode())
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Get("description")).To(Equal("Order #42 & more"))
	})

	It("appends metadata in sorted key order", func() {
		params := stripe.NewParams().AddMetadata(map[string]string{
			"orderNumber": "1001",
			"channel":     "web",
			"orderId":     "o1",
		})

		decoded, err := url.ParseQuery(params.Encode())
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded.Get("metadata[channel]")).To(Equal("web"))
		Expect(decoded.Get("metadata[orderId]")).To(Equal("o1"))
		Expect(decoded.Get("metadata[orderNumber]")).To(Equal("1001"))

		Expect(params.Encode()).To(Equal(
			url.QueryEscape("metadata[channel]") + "=web&" +
				url.QueryEscape("metadata[orderId]") + "=o1&" +
				url.QueryEscape("metadata[orderNumber]") + "=1001"))
	})

	It("reports its length", func() {
		params := stripe.NewParams()
		Expect(params.Len()).To(BeZero())

		params.Add("amount", "100")
		Expect(params.Len()).To(Equal(1))
	})
})
