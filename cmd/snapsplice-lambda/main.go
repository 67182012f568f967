package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func main() {
	lambda.Start(Handler)
}
