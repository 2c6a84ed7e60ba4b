package validators

import "go.mongodb.org/mongo-driver/bson"

var VehicleValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"make", "model", "year", "type", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"make": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},
			"model": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},
			"year": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1950,
			},
			"type": bson.M{
				"bsonType": "string",
				"enum":     []string{"sale", "rental", "both"},
			},
			"rental_price": decimalSchema,
			"sale_price":   decimalSchema,
			"mileage": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},
			"transmission": bson.M{
				"bsonType": "string",
				"enum":     []string{"automatic", "manual"},
			},
			"fuel": bson.M{
				"bsonType": "string",
				"enum":     []string{"petrol", "diesel", "hybrid", "electric"},
			},
			"seats": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  9,
			},
			"booking_version": bson.M{
				"bsonType": []string{"int", "long"},
			},
			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
