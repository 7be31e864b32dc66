package reading

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("classifyIssuer", func() {
	DescribeTable("issuer markers",
		func(text string, expected Issuer) {
			Expect(classifyIssuer(text)).To(Equal(expected))
		},
		Entry("American Express domain", "Betala via www.americanexpress.se idag", IssuerAmericanExpress),
		Entry("Länsförsäkringar company name", "Faktura från Länsförsäkringar Stockholm", IssuerLansforsakringar),
		Entry("Transportstyrelsen company name", "Transportstyrelsen fordonsskatt", IssuerTransportstyrelsen),
		Entry("Telenor company name", "Telenor Sverige AB", IssuerTelenor),
		Entry("unknown issuer", "Okänd avsändare AB", IssuerFallback),
		Entry("empty text", "", IssuerFallback),
	)

	When("the text contains several issuer markers", func() {
		It("should pick the first marker in list order", func() {
			text := "Telenor ärende via www.americanexpress.se"
			Expect(classifyIssuer(text)).To(Equal(IssuerAmericanExpress))
		})
	})
})

var _ = Describe("extractRecord", func() {
	var (
		issuer Issuer
		text   string
		record PaymentRecord
	)

	JustBeforeEach(func() {
		record = extractRecord(ruleSets[issuer], text)
	})

	Describe("American Express", func() {
		BeforeEach(func() {
			issuer = IssuerAmericanExpress
			text = "www.americanexpress.se\n" +
				"Fakturans saldo 1.250,50\n" +
				"Bankgiro: 2510-0056\n" +
				"OCR: 12345678901234\n" +
				"oss tillhanda den 15.01.25\n"
		})

		It("should normalize the dot-grouped comma-decimal amount", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("1250.5"))
		})

		It("should extract the bankgiro account", func() {
			Expect(record.Bankgiro).To(Equal("2510-0056"))
		})

		It("should extract the OCR reference", func() {
			Expect(record.OCR).To(Equal(int64(12345678901234)))
		})

		It("should parse the dd.mm.yy due date", func() {
			Expect(record.DueDate).NotTo(BeNil())
			Expect(record.DueDate.Format("2006-01-02")).To(Equal("2025-01-15"))
		})
	})

	Describe("Länsförsäkringar", func() {
		BeforeEach(func() {
			issuer = IssuerLansforsakringar
			text = "Länsförsäkringar\n" +
				"Summa att betala 12 345\n" +
				"901-9802 Länsförsäkringar\n" +
				"OCR-nummer  9876543210\n" +
				"senast 2025-03-31\n"
		})

		It("should normalize the space-grouped amount", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("12345"))
		})

		It("should extract the bankgiro account", func() {
			Expect(record.Bankgiro).To(Equal("901-9802"))
		})

		It("should extract the OCR reference", func() {
			Expect(record.OCR).To(Equal(int64(9876543210)))
		})

		It("should parse the ISO due date", func() {
			Expect(record.DueDate).NotTo(BeNil())
			Expect(record.DueDate.Format("2006-01-02")).To(Equal("2025-03-31"))
		})
	})

	Describe("Transportstyrelsen", func() {
		BeforeEach(func() {
			issuer = IssuerTransportstyrelsen
			text = "Transportstyrelsen\n" +
				"Summa att betala 1 250\n" +
				"108-0706 www.transportstyrelsen.se\n" +
				"OCR-nummer 1122334455667\n" +
				"senast 2025-02-28\n"
		})

		It("should read the space-grouped amount as thousands", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("1250"))
		})

		It("should extract the bankgiro account", func() {
			Expect(record.Bankgiro).To(Equal("108-0706"))
		})

		It("should extract the OCR reference and due date", func() {
			Expect(record.OCR).To(Equal(int64(1122334455667)))
			Expect(record.DueDate).NotTo(BeNil())
			Expect(record.DueDate.Format("2006-01-02")).To(Equal("2025-02-28"))
		})
	})

	Describe("Telenor", func() {
		BeforeEach(func() {
			issuer = IssuerTelenor
			text = "Telenor Sverige AB\n" +
				"Summa att betala 1.250,50\n" +
				"5020-7534 Telenor Sverige AB\n" +
				"OCR-nummer: # 5566778899001\n" +
				"oss tillhanda 15 januari 2025\n"
		})

		It("should normalize the dot-grouped comma-decimal amount", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("1250.5"))
		})

		It("should extract the bankgiro account", func() {
			Expect(record.Bankgiro).To(Equal("5020-7534"))
		})

		It("should extract the OCR reference", func() {
			Expect(record.OCR).To(Equal(int64(5566778899001)))
		})

		It("should resolve the Swedish month name by lookup", func() {
			Expect(record.DueDate).NotTo(BeNil())
			Expect(record.DueDate.Format("2006-01-02")).To(Equal("2025-01-15"))
		})

		When("the month name is not a Swedish month", func() {
			BeforeEach(func() {
				text = "Summa att betala 199,00\noss tillhanda 15 jannuary 2025\n"
			})

			It("should leave the due date absent and keep the amount", func() {
				Expect(record.DueDate).To(BeNil())
				Expect(record.Amount).NotTo(BeNil())
				Expect(record.Amount.String()).To(Equal("199"))
			})
		})
	})

	Describe("Fallback", func() {
		BeforeEach(func() {
			issuer = IssuerFallback
			text = "# 1234567890123 #\n" +
				"# 120 50 \n" +
				"> 1234567\n"
		})

		It("should extract the OCR reference between hash markers", func() {
			Expect(record.OCR).To(Equal(int64(1234567890123)))
		})

		It("should join kronor and öre into a decimal amount", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("120.5"))
		})

		It("should hyphenate a bare seven-digit bankgiro", func() {
			Expect(record.Bankgiro).To(Equal("123-4567"))
		})

		When("the bankgiro is already hyphenated", func() {
			BeforeEach(func() {
				text = "> 123-4567\n"
			})

			It("should keep it as is", func() {
				Expect(record.Bankgiro).To(Equal("123-4567"))
			})
		})
	})

	Describe("field isolation", func() {
		BeforeEach(func() {
			issuer = IssuerLansforsakringar
			text = "Summa att betala 500\n" +
				"OCR-nummer 9876543210\n" +
				"senast 2025-13-45\n"
		})

		It("should drop only the malformed field", func() {
			Expect(record.DueDate).To(BeNil())
		})

		It("should keep the well-formed fields", func() {
			Expect(record.Amount).NotTo(BeNil())
			Expect(record.Amount.String()).To(Equal("500"))
			Expect(record.OCR).To(Equal(int64(9876543210)))
		})
	})

	Describe("absence", func() {
		BeforeEach(func() {
			issuer = IssuerTelenor
			text = "Telenor kundservice"
		})

		It("should leave every unmatched field absent", func() {
			Expect(record.Amount).To(BeNil())
			Expect(record.Bankgiro).To(BeEmpty())
			Expect(record.Plusgiro).To(BeEmpty())
			Expect(record.OCR).To(BeZero())
			Expect(record.DueDate).To(BeNil())
		})
	})
})
