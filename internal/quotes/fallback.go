package quotes

import "github.com/ajharbinger/refibot/internal/offers"

var fallbackOffers = []offers.LenderOffer{
	{
		Lender:          "SoFi",
		FixedAPRRange:   "4.49-9.99%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$5,000-$500,000",
		Requirements:    "['Graduated from an eligible school', 'Minimum credit score of 650', 'U.S. citizen or permanent resident']",
	},
	{
		Lender:          "Earnest",
		FixedAPRRange:   "4.29-9.74%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$5,000-$500,000",
		Requirements:    "['Minimum credit score of 650', 'Steady income or job offer', 'No bankruptcies in the last 7 years']",
	},
	{
		Lender:          "Laurel Road",
		FixedAPRRange:   "4.49-8.90%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$5,000-No max",
		Requirements:    "['Bachelor\\'s degree or higher', 'Minimum credit score of 660', 'Employed or have a job offer']",
	},
	{
		Lender:          "Splash Financial",
		FixedAPRRange:   "4.96-9.99%",
		LoanTermRange:   "5-25 yrs",
		LoanAmountRange: "$5,000-$750,000",
		Requirements:    "['Minimum credit score of 650', 'U.S. citizen or permanent resident']",
	},
	{
		Lender:          "ELFI",
		FixedAPRRange:   "4.88-8.44%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$15,000-No max",
		Requirements:    "['Bachelor\\'s degree', 'Minimum credit score of 680', 'Income of $35,000 or more']",
	},
	{
		Lender:          "Citizens",
		FixedAPRRange:   "5.49-10.24%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$10,000-$750,000",
		Requirements:    "['Minimum income of $24,000', 'Satisfactory credit history', 'U.S. citizen or permanent resident']",
	},
	{
		Lender:          "Navient",
		FixedAPRRange:   "5.24-9.40%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$5,000-$500,000",
		Requirements:    "['Graduated with a degree', 'Minimum credit score of 650']",
	},
	{
		Lender:          "Credible",
		FixedAPRRange:   "4.24-9.99%",
		LoanTermRange:   "5-20 yrs",
		LoanAmountRange: "$5,000-$500,000",
		Requirements:    "['Minimum credit score of 640', 'Eligible degree']",
	},
}

// Fallback returns a copy of the built-in offer table
func Fallback() []offers.LenderOffer {
	out := make([]offers.LenderOffer, len(fallbackOffers))
	copy(out, fallbackOffers)
	return out
}
