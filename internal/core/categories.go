package core

// Default category catalogues seeded into a fresh database.
var (
	DefaultExpenditureCategories = []string{
		"Housing",
		"Utilities",
		"Groceries",
		"Tithing",
		"Car",
		"Healthcare",
		"Insurance",
		"DebtRepayment",
		"Savings",
		"Entertainment",
		"DiningOut",
		"PersonalCare",
		"Education",
		"Miscellaneous",
		"Home",
	}

	DefaultIncomeCategories = []string{
		"Salary",
		"Lodger",
		"Investment",
		"Bonus",
		"Gift",
		"Other",
	}
)

// DefaultCategories returns the catalogue for kind.
func DefaultCategories(kind Kind) []string {
	switch kind {
	case Income:
		return append([]string(nil), DefaultIncomeCategories...)
	case Expenditure:
		return append([]string(nil), DefaultExpenditureCategories...)
	}
	return nil
}
