package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"passreset/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const (
	passwordResetSubject = "Reset your password"
	passwordResetHTML    = `<p>Hi {{displayName}},</p>
<p>Somebody asked to reset the password of your account. Follow the link below to choose a new one:</p>
<p><a href="{{passwordResetUrl}}">{{passwordResetUrl}}</a></p>
<p>The link expires in {{expiresInMinutes}} minutes and works only once. If it was not you, ignore this email.</p>`
	passwordResetText = `Hi {{displayName}},

Somebody asked to reset the password of your account. Follow the link below to choose a new one:

{{passwordResetUrl}}

The link expires in {{expiresInMinutes}} minutes and works only once. If it was not you, ignore this email.`
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	svc := ses.NewFromConfig(loadAwsConfig(cfg))
	name := cfg.AwsEmailPasswordResetTemplate

	switch os.Args[1] {
	case "create-template":
		CreateEmailTemplate(svc, name)
	case "update-template":
		UpdateEmailTemplate(svc, name)
	case "delete-template":
		DeleteEmailTemplate(svc, name)
	case "send-template":
		flags := flag.NewFlagSet("send-template", flag.ExitOnError)
		to := flags.String("to", "", "recipient address")
		args := flags.String(
			"args",
			`{"passwordResetUrl": "https://example.com/reset-password?token=test", "displayName": "John", "expiresInMinutes": 60}`,
			"template data as JSON",
		)
		flags.Parse(os.Args[2:])
		if *to == "" {
			usage()
		}
		SendEmailTemplate(svc, cfg.AwsEmailSender, *to, name, *args)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: aws create-template|update-template|delete-template|send-template -to <address>")
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func loadAwsConfig(cfg *config.Config) aws.Config {
	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithRegion(cfg.AwsRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AwsAccessKey,
				cfg.AwsSecretKey,
				"",
			),
		),
	)
	if err != nil {
		fail(err)
	}
	return awsCfg
}

func passwordResetTemplate(name string) *types.Template {
	return &types.Template{
		TemplateName: aws.String(name),
		SubjectPart:  aws.String(passwordResetSubject),
		HtmlPart:     aws.String(passwordResetHTML),
		TextPart:     aws.String(passwordResetText),
	}
}

func CreateEmailTemplate(svc *ses.Client, name string) {
	result, err := svc.CreateTemplate(
		context.Background(),
		&ses.CreateTemplateInput{Template: passwordResetTemplate(name)},
	)
	if err != nil {
		fail(err)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}

func UpdateEmailTemplate(svc *ses.Client, name string) {
	result, err := svc.UpdateTemplate(
		context.Background(),
		&ses.UpdateTemplateInput{Template: passwordResetTemplate(name)},
	)
	if err != nil {
		fail(err)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}

func DeleteEmailTemplate(svc *ses.Client, name string) {
	result, err := svc.DeleteTemplate(
		context.Background(),
		&ses.DeleteTemplateInput{
			TemplateName: &name,
		},
	)
	if err != nil {
		fail(err)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}

func SendEmailTemplate(svc *ses.Client, sender string, to string, name string, args string) {
	result, err := svc.SendTemplatedEmail(
		context.Background(),
		&ses.SendTemplatedEmailInput{
			Source: aws.String(sender),
			Destination: &types.Destination{
				CcAddresses: []string{},
				ToAddresses: []string{to},
			},
			Template:     &name,
			TemplateData: &args,
		},
	)
	if err != nil {
		fail(err)
	}

	fmt.Println("Success:")
	fmt.Println(result)
}
