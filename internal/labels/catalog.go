package labels

// Built in messages. Keys are what integration clients put into envelopes.
var defaults = map[string]string{
	"submitWpError":    "Something went wrong while submitting your form. Please try again.",
	"submitSecurity":   "The form could not be submitted. Please reload the page and try again.",
	"submitMalformed":  "The submitted data is invalid. Please check the form and try again.",
	"submitValidation": "Some fields are not filled in correctly. Please check the form and try again.",
	"submitRateLimit":  "Too many submissions. Please wait a minute and try again.",

	"validationRequired": "This field is required.",
	"validationEmail":    "This e-mail is not valid.",
	"validationInvalid":  "This field is not valid.",

	"hubspotSuccess":                                 "The form was submitted successfully. Thank you!",
	"hubspotBadRequestError":                         "Something is not right with the form. Please check all the fields and try again.",
	"hubspotInvalidRequestError":                     "Something is not right with the form. Please check all the fields and try again.",
	"hubspotMaxNumberOfSubmittedValuesExceededError": "More than 1000 fields were included in the response. Please contact website administrator.",
	"hubspotInvalidEmailError":                       "The email address is invalid.",
	"hubspotBlockedEmailError":                       "The email address is blocked.",
	"hubspotInvalidNumberError":                      "The number is invalid.",
	"hubspotInputTooLargeError":                      "The value in the field is too large for the type of field.",
	"hubspotFieldNotInFormDefinitionError":           "The field was included in the form submission but is not in the form definition.",
	"hubspotNumberOutOfRangeError":                   "The value of a number field outside the range specified in the field settings.",
	"hubspotValueNotInFieldDefinitionError":          "The value provided for an enumeration field is not one of the possible options.",
	"hubspotInvalidMetadataError":                    "The context object in the request contains an invalid value.",
	"hubspotInvalidGotowebinarWebinarKeyError":       "The value in goToWebinarWebinarKey in the context object is invalid.",
	"hubspotInvalidHutkError":                        "The hutk field in the context object is invalid.",
	"hubspotInvalidIpAddressError":                   "The ipAddress field in the context object is invalid.",
	"hubspotInvalidPageUriError":                     "The pageUri field in the context object is invalid.",
	"hubspotInvalidLegalOptionFormatError":           "The legalConsentOptions was empty or it contains both the consent and legitimateInterest fields.",
	"hubspotMissingProcessingConsentError":           "The consentToProcess field in consent or value field in legitimateInterest is false.",
	"hubspotMissingProcessingConsentTextError":       "The text field for processing consent is missing.",
	"hubspotMissingCommunicationConsentTextError":    "The communication consent text is missing for a subscription.",
	"hubspotMissingLegitimateInterestTextError":      "The legitimate interest consent text is missing.",
	"hubspotDuplicateSubscriptionTypeIdError":        "The communications list contains two or more items with the same subscriptionTypeId.",
	"hubspotHasRecaptchaEnabledError":                "The form has reCAPTCHA enabled so it can not be submitted through the API.",
	"hubspotError429Error":                           "Too many requests. Please try again later.",

	"mailchimpSuccess":                          "The newsletter subscription was successful. Thank you!",
	"mailchimpBadRequestError":                  "The email address is invalid.",
	"mailchimpInvalidResourceError":             "The email address is invalid or blocked.",
	"mailchimpInvalidEmailError":                "The email address is invalid or fake.",
	"mailchimpMissingFieldsError":               "Some required fields are missing.",
	"mailchimpForgottenEmailNotSubscribedError": "This email was permanently deleted and can not be resubscribed.",
	"mailchimpMemberInComplianceStateError":     "This email is in a compliance state and can not be subscribed.",
	"mailchimpMemberExistsError":                "This email is already subscribed.",
	"mailchimpResourceNotFoundError":            "The mailing list was not found.",

	"greenhouseSuccess":                  "The application was submitted successfully. Thank you!",
	"greenhouseBadRequestError":          "Something is not right with the job application. Please check all the fields and try again.",
	"greenhouseUnsupportedFileTypeError": "The file type is not supported.",
	"greenhouseInvalidAttributesError":   "Some required fields are missing.",
	"greenhouseJobNotFoundError":         "The job was not found.",

	"workableSuccess":          "The application was submitted successfully. Thank you!",
	"workableBadRequestError":  "Something is not right with the job application. Please check all the fields and try again.",
	"workableArchivedJobError": "This job is no longer accepting applications.",
	"workableValidationError":  "Some fields are not valid.",
	"workableJobNotFoundError": "The job was not found.",
}
