package validators

import "go.mongodb.org/mongo-driver/bson"

const e164Pattern = `^\+[1-9][0-9]{1,14}$`

// Money is written as Decimal128. Plain numbers are accepted for seeded rows.
var decimalSchema = bson.M{
	"bsonType": []string{"decimal", "double", "int", "long"},
	"minimum":  0,
}

var objectIDHexSchema = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}
