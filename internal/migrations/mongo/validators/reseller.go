package validators

import "go.mongodb.org/mongo-driver/bson"

var ResellerValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "phone", "email", "commission_rate", "active", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"company": bson.M{
				"bsonType":  "string",
				"maxLength": 100,
			},
			"phone": bson.M{
				"bsonType": "string",
				"pattern":  e164Pattern,
			},
			"email": bson.M{
				"bsonType": "string",
			},
			"commission_rate": bson.M{
				"bsonType": []string{"decimal", "double", "int", "long"},
				"minimum":  0,
				"maximum":  100,
			},
			"active": bson.M{
				"bsonType": "bool",
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var CommissionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "reseller_id", "status", "earnings", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":               objectIDHexSchema,
			"reseller_id":       objectIDHexSchema,
			"vehicle_id":        objectIDHexSchema,
			"commission_amount": decimalSchema,
			"upcharge_amount":   decimalSchema,
			"earnings":          decimalSchema,
			"customer_total":    decimalSchema,
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"accrued", "payable", "void"},
			},
			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
