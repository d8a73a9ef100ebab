package catalog

// Seed data for fresh catalogs. Learned entries layer on top and never
// replace what is already here.

var defaultCategoryNames = map[string]string{
	"AUTOMOTIVE":                 "Automotive & Car Care",
	"BABY CARE":                  "Baby Care & Products",
	"BEAUTY":                     "Beauty & Personal Care",
	"BEVERAGES":                  "Beverages & Drinks",
	"BOOKS":                      "Books & Media",
	"BREAD/BAKERY":               "Bread & Bakery",
	"CELEBRATION":                "Party & Celebration",
	"CLEANING":                   "Cleaning Supplies",
	"DAIRY":                      "Dairy Products",
	"DELI":                       "Deli & Prepared Foods",
	"EGGS":                       "Eggs",
	"FROZEN FOODS":               "Frozen Foods",
	"GROCERY I":                  "Grocery - Packaged Foods",
	"GROCERY II":                 "Grocery - Canned & Dry Goods",
	"HARDWARE":                   "Hardware & Tools",
	"HOME AND GARDEN I":          "Home & Garden",
	"HOME AND GARDEN II":         "Garden & Outdoor",
	"HOME APPLIANCES":            "Home Appliances",
	"HOME CARE":                  "Home Care Products",
	"LADIESWEAR":                 "Ladies Clothing",
	"LAWN AND GARDEN":            "Lawn & Garden",
	"LINGERIE":                   "Lingerie",
	"LIQUOR,WINE,BEER":           "Alcohol & Beverages",
	"MAGAZINES":                  "Magazines",
	"MEATS":                      "Fresh Meat",
	"PERSONAL CARE":              "Personal Care",
	"PET SUPPLIES":               "Pet Supplies",
	"PLAYERS AND ELECTRONICS":    "Electronics",
	"POULTRY":                    "Poultry",
	"PREPARED FOODS":             "Prepared Foods",
	"PRODUCE":                    "Fresh Produce",
	"SCHOOL AND OFFICE SUPPLIES": "Office Supplies",
	"SEAFOOD":                    "Fresh Seafood",
}

var defaultClassNames = map[int]string{
	1096: "Packaged Snacks",
	1097: "Canned Goods",
	1098: "Condiments & Sauces",
	1099: "Rice & Grains",
	1100: "Pasta & Noodles",
	1101: "Cooking Oil & Vinegar",
	1102: "Spices & Seasonings",
	1103: "Baking Supplies",
	1104: "Breakfast Cereals",
	1105: "Coffee & Tea",
	2001: "Fresh Vegetables",
	2002: "Fresh Fruits",
	2003: "Herbs & Greens",
	2004: "Organic Produce",
	3024: "Household Cleaners",
	3025: "Laundry Detergent",
	3026: "Dish Soap",
	3027: "Paper Towels",
	3028: "Toilet Paper",
	3029: "Trash Bags",
	3030: "Air Fresheners",
	4001: "Ground Beef",
	4002: "Chicken Breast",
	4003: "Pork Chops",
	4004: "Fish Fillets",
	4005: "Deli Meats",
	5001: "Milk",
	5002: "Cheese",
	5003: "Yogurt",
	5004: "Butter",
	5005: "Ice Cream",
}

var defaultItemNames = map[int]string{
	108952: "Multi-Surface Cleaner",
	402175: "Premium Breakfast Cereal",
	123456: "Organic Bananas",
	234567: "Whole Milk (1 Gallon)",
	345678: "Ground Coffee (12oz)",
	456789: "Chicken Breast (Family Pack)",
	567890: "White Bread (Loaf)",
	678901: "Large Eggs (Dozen)",
	789012: "Cheddar Cheese (8oz)",
	890123: "Pasta Sauce (24oz)",
	901234: "Orange Juice (64oz)",
	112233: "Toilet Paper (12 Roll)",
	223344: "Paper Towels (6 Roll)",
	334455: "Laundry Detergent (32oz)",
	445566: "Dish Soap (22oz)",
	556677: "All-Purpose Flour (5lb)",
	667788: "Vegetable Oil (48oz)",
	778899: "Brown Rice (2lb)",
	889900: "Black Beans (15oz Can)",
	990011: "Tomato Sauce (15oz Can)",
}

// chartPalette is the fixed 20-entry color cycle for chart series.
var chartPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	"#aec7e8", "#ffbb78", "#98df8a", "#ff9896", "#c5b0d5",
	"#c49c94", "#f7b6d3", "#c7c7c7", "#dbdb8d", "#9edae5",
}
