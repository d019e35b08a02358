package lookup

// DefaultEntries seeds a fresh project config.
var DefaultEntries = []Entry{
	{Code: "WIP-1001", Name: "Vanilla Base"},
	{Code: "WIP-1002", Name: "Chocolate Fudge Syrup"},
	{Code: "WIP-1003", Name: "Strawberry Ripple Sauce"},
	{Code: "WIP-1004", Name: "Salted Caramel Base"},
	{Code: "WIP-2001", Name: "High-Protein Whey Slurry"},
	{Code: "WIP-2002", Name: "Oat Milk Base"},
	{Code: "WIP-3001", Name: "Lemon Curd Filling"},
}
